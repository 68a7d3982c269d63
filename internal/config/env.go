package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvInput     = "LITMAP_INPUT"
	EnvOutput    = "LITMAP_OUTPUT"
	EnvPlot      = "LITMAP_PLOT"
	EnvLogLevel  = "LITMAP_LOG_LEVEL"
	EnvLogFormat = "LITMAP_LOG_FORMAT"
	EnvSVDSeed   = "LITMAP_SVD_SEED"
	EnvTSNESeed  = "LITMAP_TSNE_SEED"
)

// DotEnvFile is read by LoadEnv when no files are given.
const DotEnvFile = ".env"

// Env resolves settings from the process environment, falling back to
// values read from .env files. Process variables always win.
type Env struct {
	dotenv map[string]string
}

// LoadEnv reads the given .env files, or DotEnvFile if it exists.
func LoadEnv(files ...string) (*Env, error) {
	if len(files) == 0 {
		if _, err := os.Stat(DotEnvFile); err != nil {
			return &Env{dotenv: map[string]string{}}, nil
		}
		files = []string{DotEnvFile}
	}
	values, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return &Env{dotenv: values}, nil
}

// Get returns the value of key and whether it was set anywhere.
func (e *Env) Get(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := e.dotenv[key]
	return v, ok
}

// ApplyEnv overrides config fields from LITMAP_* variables.
func (c *Config) ApplyEnv(e *Env) error {
	strs := map[string]*string{
		EnvInput:     &c.Input,
		EnvOutput:    &c.Output,
		EnvPlot:      &c.Plot,
		EnvLogLevel:  &c.Log.Level,
		EnvLogFormat: &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := e.Get(key); ok && v != "" {
			*dst = v
		}
	}

	seeds := map[string]*uint64{
		EnvSVDSeed:  &c.Reduction.Seed,
		EnvTSNESeed: &c.Embedding.Seed,
	}
	for key, dst := range seeds {
		v, ok := e.Get(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a seed", ErrInvalid, key, v)
		}
		*dst = n
	}
	return nil
}
