// SPDX-License-Identifier: Apache-2.0

// Package config loads the runtime configuration of the checker from an
// optional YAML file with environment variable overrides. Every setting
// has a working default, so running with no config file at all is fine.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Environment variable names recognized as overrides.
const (
	EnvAPIKey            = "GEMINI_API_KEY"
	EnvEmbeddingModel    = "BAFA_EMBEDDING_MODEL"
	EnvSemanticMinScore  = "BAFA_SEMANTIC_MIN_CONFIDENCE"
	EnvEscalationCutoff  = "BAFA_ESCALATION_THRESHOLD"
	EnvDisableEmbeddings = "BAFA_DISABLE_EMBEDDINGS"
)

// Semantic configures the offer-line matcher.
type Semantic struct {
	MinConfidence     float64 `yaml:"min_confidence"`
	EmbeddingModel    string  `yaml:"embedding_model"`
	DisableEmbeddings bool    `yaml:"disable_embeddings"`
}

// Config is the full runtime configuration.
type Config struct {
	// ThresholdDefaults are fallback U-value thresholds keyed by measure ID,
	// used when extraction yields no threshold for a measure.
	ThresholdDefaults map[string]float64 `yaml:"threshold_defaults"`

	Semantic Semantic `yaml:"semantic"`

	// EscalationThreshold is the risk score above which a case is handed
	// to a human reviewer.
	EscalationThreshold float64 `yaml:"escalation_threshold"`

	// APIKey authenticates the embedding provider. Only read from the
	// environment, never from the config file.
	APIKey string `yaml:"-"`
}

// Default returns the built-in configuration. The threshold values are
// the published funding limits for the supported envelope measures.
func Default() Config {
	return Config{
		ThresholdDefaults: map[string]float64{
			"envelope_aussenwand":  0.20,
			"envelope_dach":        0.14,
			"envelope_fenster":     0.95,
			"envelope_kellerdecke": 0.25,
		},
		Semantic: Semantic{
			MinConfidence:  0.58,
			EmbeddingModel: "gemini-embedding-001",
		},
		EscalationThreshold: 0.30,
	}
}

// Load reads the config file at path on top of the defaults, then applies
// environment overrides. An empty path or a missing file keeps defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Semantic.EmbeddingModel = v
	}
	if v := os.Getenv(EnvSemanticMinScore); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Semantic.MinConfidence = f
		}
	}
	if v := os.Getenv(EnvEscalationCutoff); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.EscalationThreshold = f
		}
	}
	if v := os.Getenv(EnvDisableEmbeddings); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Semantic.DisableEmbeddings = b
		}
	}
}

// EmbeddingsEnabled reports whether the matcher may call the embedding
// provider: explicitly enabled configuration plus a usable API key.
func (c Config) EmbeddingsEnabled() bool {
	return !c.Semantic.DisableEmbeddings && c.APIKey != ""
}
