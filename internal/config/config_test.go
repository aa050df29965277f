// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisfleischmann/fs-bafa-check/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.EnvAPIKey,
		config.EnvEmbeddingModel,
		config.EnvSemanticMinScore,
		config.EnvEscalationCutoff,
		config.EnvDisableEmbeddings,
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

// ---------------------------------------------------------------------------
// Defaults and file loading
// ---------------------------------------------------------------------------

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.InDelta(t, 0.20, cfg.ThresholdDefaults["envelope_aussenwand"], 1e-9)
	assert.InDelta(t, 0.14, cfg.ThresholdDefaults["envelope_dach"], 1e-9)
	assert.InDelta(t, 0.95, cfg.ThresholdDefaults["envelope_fenster"], 1e-9)
	assert.InDelta(t, 0.25, cfg.ThresholdDefaults["envelope_kellerdecke"], 1e-9)
	assert.InDelta(t, 0.58, cfg.Semantic.MinConfidence, 1e-9)
	assert.Equal(t, "gemini-embedding-001", cfg.Semantic.EmbeddingModel)
	assert.InDelta(t, 0.30, cfg.EscalationThreshold, 1e-9)
}

func TestLoad_NoPathKeepsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`semantic:
  min_confidence: 0.70
escalation_threshold: 0.45
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.70, cfg.Semantic.MinConfidence, 1e-9)
	assert.InDelta(t, 0.45, cfg.EscalationThreshold, 1e-9)
	// untouched settings keep their defaults
	assert.Equal(t, "gemini-embedding-001", cfg.Semantic.EmbeddingModel)
}

func TestLoad_BrokenFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{broken: ["), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Environment overrides
// ---------------------------------------------------------------------------

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvAPIKey, "test-key")
	t.Setenv(config.EnvEmbeddingModel, "other-model")
	t.Setenv(config.EnvSemanticMinScore, "0.80")
	t.Setenv(config.EnvEscalationCutoff, "0.55")
	t.Setenv(config.EnvDisableEmbeddings, "true")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "other-model", cfg.Semantic.EmbeddingModel)
	assert.InDelta(t, 0.80, cfg.Semantic.MinConfidence, 1e-9)
	assert.InDelta(t, 0.55, cfg.EscalationThreshold, 1e-9)
	assert.True(t, cfg.Semantic.DisableEmbeddings)
}

func TestLoad_UnparseableEnvValuesAreIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvSemanticMinScore, "keine Zahl")
	t.Setenv(config.EnvDisableEmbeddings, "vielleicht")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.InDelta(t, 0.58, cfg.Semantic.MinConfidence, 1e-9)
	assert.False(t, cfg.Semantic.DisableEmbeddings)
}

func TestEmbeddingsEnabled(t *testing.T) {
	cfg := config.Default()
	assert.False(t, cfg.EmbeddingsEnabled())

	cfg.APIKey = "test-key"
	assert.True(t, cfg.EmbeddingsEnabled())

	cfg.Semantic.DisableEmbeddings = true
	assert.False(t, cfg.EmbeddingsEnabled())
}
