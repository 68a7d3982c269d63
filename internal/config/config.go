// Package config handles litmap run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jiekaitao/litmap/internal/logging"
	"github.com/jiekaitao/litmap/internal/reduce"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is read from the working directory when no --config is given.
	DefaultConfigFile = "litmap.yml"
	// DefaultInput is the corpus database read when nothing else is configured.
	DefaultInput = "articles.db"
	// DefaultOutput is the export file consumed by the website.
	DefaultOutput = "website_ready.json"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full configuration of one pipeline run.
type Config struct {
	Input  string `yaml:"input"`          // .db/.sqlite → SQLite, .jsonl → JSONL
	Output string `yaml:"output"`         // JSON export path
	Plot   string `yaml:"plot,omitempty"` // Optional HTML scatter plot path

	Reduction ReductionConfig `yaml:"reduction"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Log       logging.Config  `yaml:"log"`
}

// ReductionConfig configures the truncated SVD stage.
type ReductionConfig struct {
	Components      int    `yaml:"components"`
	Oversamples     int    `yaml:"oversamples"`
	PowerIterations int    `yaml:"power_iterations"` // 0 = automatic
	Seed            uint64 `yaml:"seed"`
}

// EmbeddingConfig configures the t-SNE stage. The output is always 2-D.
type EmbeddingConfig struct {
	Perplexity        float64 `yaml:"perplexity"`
	Iterations        int     `yaml:"iterations"`
	EarlyExaggeration float64 `yaml:"early_exaggeration"`
	LearningRate      float64 `yaml:"learning_rate"` // 0 = automatic
	Init              string  `yaml:"init"`          // pca or random
	Seed              uint64  `yaml:"seed"`
	Verbose           bool    `yaml:"verbose"`
}

// Default returns the standard configuration.
func Default() *Config {
	svd := reduce.DefaultTruncatedSVD()
	tsne := reduce.DefaultTSNE()
	return &Config{
		Input:  DefaultInput,
		Output: DefaultOutput,
		Reduction: ReductionConfig{
			Components:      svd.Components,
			Oversamples:     svd.Oversamples,
			PowerIterations: svd.PowerIterations,
			Seed:            svd.Seed,
		},
		Embedding: EmbeddingConfig{
			Perplexity:        tsne.Perplexity,
			Iterations:        tsne.Iterations,
			EarlyExaggeration: tsne.EarlyExaggeration,
			LearningRate:      tsne.LearningRate,
			Init:              tsne.Init,
			Seed:              tsne.Seed,
			Verbose:           true,
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads a YAML config file over the defaults.
// An empty path reads DefaultConfigFile if present and otherwise returns the
// defaults; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Input == "" {
		problems = append(problems, "input is required")
	}
	if c.Output == "" {
		problems = append(problems, "output is required")
	}
	if c.Reduction.Components < 1 {
		problems = append(problems, fmt.Sprintf("reduction.components must be positive, got %d", c.Reduction.Components))
	}
	if c.Reduction.Oversamples < 0 {
		problems = append(problems, fmt.Sprintf("reduction.oversamples must not be negative, got %d", c.Reduction.Oversamples))
	}
	if c.Embedding.Perplexity <= 0 {
		problems = append(problems, fmt.Sprintf("embedding.perplexity must be positive, got %g", c.Embedding.Perplexity))
	}
	if c.Embedding.Iterations < 1 {
		problems = append(problems, fmt.Sprintf("embedding.iterations must be positive, got %d", c.Embedding.Iterations))
	}
	if c.Embedding.EarlyExaggeration < 1 {
		problems = append(problems, fmt.Sprintf("embedding.early_exaggeration must be at least 1, got %g", c.Embedding.EarlyExaggeration))
	}
	if c.Embedding.LearningRate < 0 {
		problems = append(problems, fmt.Sprintf("embedding.learning_rate must not be negative, got %g", c.Embedding.LearningRate))
	}
	switch c.Embedding.Init {
	case "", reduce.InitPCA, reduce.InitRandom:
	default:
		problems = append(problems, fmt.Sprintf("embedding.init must be pca or random, got %q", c.Embedding.Init))
	}
	if !logging.ValidLevel(c.Log.Level) {
		problems = append(problems, fmt.Sprintf("log.level %q is not a known level", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be console or json, got %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// SVD returns the truncated SVD stage settings.
func (r ReductionConfig) SVD() reduce.TruncatedSVD {
	return reduce.TruncatedSVD{
		Components:      r.Components,
		Oversamples:     r.Oversamples,
		PowerIterations: r.PowerIterations,
		Seed:            r.Seed,
	}
}

// TSNE returns the t-SNE stage settings. Progress reporting is attached by
// the pipeline.
func (e EmbeddingConfig) TSNE() reduce.TSNE {
	return reduce.TSNE{
		Dimensions:        reduce.DefaultDimensions,
		Perplexity:        e.Perplexity,
		Iterations:        e.Iterations,
		EarlyExaggeration: e.EarlyExaggeration,
		LearningRate:      e.LearningRate,
		Init:              e.Init,
		Seed:              e.Seed,
	}
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
