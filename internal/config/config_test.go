package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, 50, cfg.Reduction.Components)
	assert.Equal(t, uint64(42), cfg.Reduction.Seed)
	assert.Equal(t, 20.0, cfg.Embedding.Perplexity)
	assert.Equal(t, 300, cfg.Embedding.Iterations)
	assert.Equal(t, uint64(1000), cfg.Embedding.Seed)
	assert.True(t, cfg.Embedding.Verbose)
	require.NoError(t, cfg.Validate())

	tsne := cfg.Embedding.TSNE()
	assert.Equal(t, 2, tsne.Dimensions)
	assert.Equal(t, cfg.Embedding.Seed, tsne.Seed)
	assert.Equal(t, 50, cfg.Reduction.SVD().Components)
}

func TestLoad(t *testing.T) {
	t.Run("explicit file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "litmap.yml")
		content := `
input: corpus.jsonl
reduction:
  components: 8
embedding:
  perplexity: 5
  seed: 7
log:
  level: debug
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "corpus.jsonl", cfg.Input)
		assert.Equal(t, DefaultOutput, cfg.Output)
		assert.Equal(t, 8, cfg.Reduction.Components)
		assert.Equal(t, uint64(42), cfg.Reduction.Seed)
		assert.Equal(t, 5.0, cfg.Embedding.Perplexity)
		assert.Equal(t, 300, cfg.Embedding.Iterations)
		assert.Equal(t, uint64(7), cfg.Embedding.Seed)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yml")
		require.NoError(t, os.WriteFile(path, []byte("reduction: [1, 2"), 0644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("save and reload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "litmap.yml")
		cfg := Default()
		cfg.Plot = "plot.html"
		cfg.Embedding.Init = "random"
		require.NoError(t, cfg.Save(path))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no input", func(c *Config) { c.Input = "" }},
		{"no output", func(c *Config) { c.Output = "" }},
		{"zero components", func(c *Config) { c.Reduction.Components = 0 }},
		{"negative oversamples", func(c *Config) { c.Reduction.Oversamples = -2 }},
		{"zero perplexity", func(c *Config) { c.Embedding.Perplexity = 0 }},
		{"zero iterations", func(c *Config) { c.Embedding.Iterations = 0 }},
		{"exaggeration below one", func(c *Config) { c.Embedding.EarlyExaggeration = 0.5 }},
		{"negative learning rate", func(c *Config) { c.Embedding.LearningRate = -1 }},
		{"unknown init", func(c *Config) { c.Embedding.Init = "spectral" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "chatty" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("LITMAP_OUTPUT=from-dotenv.json\nLITMAP_INPUT=from-dotenv.db\nLITMAP_TSNE_SEED=99\n"), 0644))

	t.Setenv(EnvInput, "from-process.db")

	env, err := LoadEnv(envPath)
	require.NoError(t, err)

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env))
	assert.Equal(t, "from-process.db", cfg.Input)
	assert.Equal(t, "from-dotenv.json", cfg.Output)
	assert.Equal(t, uint64(99), cfg.Embedding.Seed)
	assert.Equal(t, uint64(42), cfg.Reduction.Seed)
}

func TestApplyEnv_BadSeed(t *testing.T) {
	t.Setenv(EnvSVDSeed, "forty-two")
	env := &Env{dotenv: map[string]string{}}
	assert.ErrorIs(t, Default().ApplyEnv(env), ErrInvalid)
}

func TestLoadEnv_MissingExplicitFile(t *testing.T) {
	_, err := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	assert.Equal(t, filepath.Join(home, "corpus.db"), ExpandPath("~/corpus.db"))
	assert.Equal(t, "/abs/corpus.db", ExpandPath("/abs/corpus.db"))
	assert.Equal(t, "", ExpandPath(""))
}
