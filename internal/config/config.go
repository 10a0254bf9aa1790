// Package config loads analyzer settings: defaults, an optional YAML
// settings file, a .env file, and environment variable overrides, in
// that order.
package config

import (
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/f1r3fly-io/rholang-analyzer/internal/reactive"
)

// Config carries every tunable the analyzer exposes.
type Config struct {
	// FuzzyMaxDistance bounds completion fuzzy matching.
	FuzzyMaxDistance int `yaml:"fuzzy_max_distance"`
	// MaxCompletions caps completion results per request.
	MaxCompletions int `yaml:"max_completions"`
	// EnableTypeConstraints switches pattern-conjunction matching on.
	EnableTypeConstraints bool `yaml:"enable_type_constraints"`
	// Languages maps embedded language ids to their compiler channel
	// names for semantic region detection.
	Languages map[string][]string `yaml:"languages"`
	// Reactive carries the stream constants.
	Reactive reactive.Config `yaml:"reactive"`
}

// Default returns the built-in settings: distance 1, 20 completions,
// constraints off, MeTTa wired to its known compiler channels.
func Default() Config {
	return Config{
		FuzzyMaxDistance: 1,
		MaxCompletions:   20,
		Languages: map[string][]string{
			"metta": {"mettaCompiler", "rho:metta:compiler"},
		},
		Reactive: reactive.DefaultConfig(),
	}
}

// Load builds the effective configuration. A missing settings file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	// Populate the process environment from .env when present.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	return cfg.normalize(), nil
}

func applyEnv(cfg *Config) {
	if v, ok := envInt("RHOLANG_ANALYZER_FUZZY_MAX_DISTANCE"); ok {
		cfg.FuzzyMaxDistance = v
	}
	if v, ok := envInt("RHOLANG_ANALYZER_MAX_COMPLETIONS"); ok {
		cfg.MaxCompletions = v
	}
	if v := os.Getenv("RHOLANG_ANALYZER_TYPE_CONSTRAINTS"); v != "" {
		cfg.EnableTypeConstraints = v == "1" || v == "true"
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c Config) normalize() Config {
	if c.FuzzyMaxDistance < 1 {
		c.FuzzyMaxDistance = 1
	}
	if c.MaxCompletions <= 0 {
		c.MaxCompletions = 20
	}
	if c.Languages == nil {
		c.Languages = Default().Languages
	}
	c.Reactive = c.Reactive.Normalize()
	return c
}
