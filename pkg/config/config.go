// Package config loads the engine configuration from a YAML file with
// defaults for everything, so a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkobayashi/dokusho/pkg/tokenize"
)

// Config holds all runtime settings.
type Config struct {
	// DatabasePath is the sqlite file location.
	DatabasePath string `yaml:"database_path"`

	// DictionaryPath points at the jmdict-simplified JSON file; downloaded
	// there when missing.
	DictionaryPath string `yaml:"dictionary_path"`
	// FrequencyTablePath points at a word<TAB>frequency TSV; empty disables
	// frequency-based lexical scoring.
	FrequencyTablePath string `yaml:"frequency_table_path"`
	// PitchTablePath points at a word<TAB>reading<TAB>accent TSV; empty
	// disables pitch annotations.
	PitchTablePath string `yaml:"pitch_table_path"`

	// KanjiAPIBaseURL is the kanji-grade service endpoint; empty disables
	// grade lookups.
	KanjiAPIBaseURL string `yaml:"kanji_api_base_url"`
	// ReadabilityURL is the external readability scorer; empty falls back to
	// the character-based estimate.
	ReadabilityURL string `yaml:"readability_url"`
	// HTTPTimeoutSeconds bounds calls to the external services.
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`

	// ChunkSize caps imported chunk length in runes.
	ChunkSize int `yaml:"chunk_size"`
	// MergeConjugations folds inflected phrases into single tokens.
	MergeConjugations bool `yaml:"merge_conjugations"`
	// Granularity is the default tokenization mode: short, medium or long.
	Granularity string `yaml:"granularity"`
	// ChallengeLevel is the i+1 difficulty step above current proficiency.
	ChallengeLevel float64 `yaml:"challenge_level"`

	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// HTTPTimeout is HTTPTimeoutSeconds as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		DatabasePath:       "dokusho.db",
		DictionaryPath:     "jmdict-eng-common.json",
		KanjiAPIBaseURL:    "https://kanjiapi.dev/v1/kanji",
		HTTPTimeoutSeconds: 5,
		ChunkSize:          2000,
		MergeConjugations:  true,
		Granularity:        "medium",
		ChallengeLevel:     0.1,
		LogLevel:           "info",
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults; a malformed or invalid file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges and enum values.
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChallengeLevel < 0 || c.ChallengeLevel > 1 {
		return fmt.Errorf("challenge_level %v out of range [0,1]", c.ChallengeLevel)
	}
	if c.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("http_timeout_seconds must not be negative")
	}
	if _, err := tokenize.ParseGranularity(c.Granularity); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}
