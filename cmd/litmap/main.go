// Package main provides the litmap CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jiekaitao/litmap/internal/article"
	"github.com/jiekaitao/litmap/internal/config"
	"github.com/jiekaitao/litmap/internal/export"
	"github.com/jiekaitao/litmap/internal/logging"
	"github.com/jiekaitao/litmap/internal/reduce"
	"github.com/jiekaitao/litmap/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// configPath is the --config flag shared by every command.
var configPath string

// errUnsupportedInput is returned for corpus files of an unknown kind.
var errUnsupportedInput = errors.New("unsupported input format")

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "litmap",
	Short: "Lay out a literature corpus as a 2-D map",
	Long: `litmap turns an article corpus into a 2-D map of related work.

Pipeline:
  - Encode each article's concept tags into a sparse matrix
  - Reduce the matrix with a truncated SVD
  - Fuse the reduced concepts with normalised publication dates
  - Embed the fused features in 2-D with t-SNE
  - Export website_ready.json (and optionally an HTML scatter plot)

The export can then be queried for citation paths and layout neighbours.
All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultConfigFile+" if present)")
	rootCmd.Version = Version
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, reduce.ErrInvalidConfig),
		errors.Is(err, reduce.ErrDimensionTooLarge),
		errors.Is(err, reduce.ErrPerplexityTooLarge),
		errors.Is(err, errUnsupportedInput):
		return ExitConfigError
	case errors.Is(err, reduce.ErrFactorization),
		errors.Is(err, export.ErrNonFinite),
		errors.Is(err, export.ErrRowMismatch):
		return ExitDataError
	default:
		return ExitError
	}
}

// loadConfig reads the config file, then .env and LITMAP_* overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := loadConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger builds the stderr logger for a command.
func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Log)
}

// inputKind classifies a corpus path by extension.
func inputKind(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", nil
	case ".jsonl", ".ndjson":
		return "jsonl", nil
	default:
		return "", fmt.Errorf("%w: %s (want .db, .sqlite or .jsonl)", errUnsupportedInput, path)
	}
}

// loadCorpus reads a corpus from SQLite or JSONL depending on the extension.
func loadCorpus(path string, log zerolog.Logger) (*article.Corpus, error) {
	kind, err := inputKind(path)
	if err != nil {
		return nil, err
	}
	path = config.ExpandPath(path)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}

	switch kind {
	case "sqlite":
		db, err := storage.OpenDB(path)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.LoadCorpus(log)
	default:
		return storage.ReadArticlesJSONL(path, log)
	}
}

// mustReadRecords reads an export file, exits on error.
func mustReadRecords(path string) []export.Record {
	records, err := export.ReadRecords(config.ExpandPath(path))
	if err != nil {
		exitWithError(ExitDataError, "%v\n\nRun 'litmap run' to create the export.", err)
	}
	return records
}

// exportPath returns flagValue, or the configured output file when empty.
func exportPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return mustLoadConfig().Output
}
