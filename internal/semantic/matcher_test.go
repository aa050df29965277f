// SPDX-License-Identifier: Apache-2.0

package semantic_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisfleischmann/fs-bafa-check/internal/semantic"
)

// stubEmbedder returns fixed vectors per normalized text prefix and counts
// calls, so tests can assert when the provider is consulted at all.
type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	for prefix, vector := range s.vectors {
		if strings.Contains(text, prefix) {
			return vector, nil
		}
	}
	return nil, fmt.Errorf("no vector for %q", text)
}

// ---------------------------------------------------------------------------
// Lexical matching
// ---------------------------------------------------------------------------

func TestMatch_Lexical(t *testing.T) {
	matcher := semantic.NewMatcher(semantic.Catalog)

	tests := []struct {
		name          string
		text          string
		wantItemCode  string
		wantComponent string
	}{
		{
			name:          "window replacement",
			text:          "Liefern und Montieren von Kunststofffenstern, Fenstertausch",
			wantItemCode:  "fenster_element",
			wantComponent: "fenster",
		},
		{
			name:          "joint sealing with umlauts and compound nouns",
			text:          "schlagregendichter Anschluss außen Fassadendämmung",
			wantItemCode:  "fugen_abdichtung",
			wantComponent: "fenster",
		},
		{
			name:          "facade insulation",
			text:          "WDVS Fassadendämmung 16 cm",
			wantItemCode:  "aussenwand_daemmung",
			wantComponent: "aussenwand",
		},
		{
			name:          "window sill",
			text:          "Fensterbank liefern und montieren",
			wantItemCode:  "fensterbank",
			wantComponent: "fenster",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := matcher.Match(context.Background(), tt.text)
			require.NotNil(t, match)
			assert.Equal(t, tt.wantItemCode, match.ItemCode)
			assert.Equal(t, tt.wantComponent, match.Component)
			assert.Equal(t, semantic.MethodLexical, match.Method)
			assert.GreaterOrEqual(t, match.Confidence, semantic.DefaultMinConfidence)
		})
	}
}

func TestMatch_BelowFloorReturnsNil(t *testing.T) {
	matcher := semantic.NewMatcher(semantic.Catalog)
	assert.Nil(t, matcher.Match(context.Background(), "Anstrich der Innenraeume in weiss"))
	assert.Nil(t, matcher.Match(context.Background(), ""))
}

func TestMatch_Deterministic(t *testing.T) {
	matcher := semantic.NewMatcher(semantic.Catalog)
	first := matcher.Match(context.Background(), "Abdichtung der Fugen mit Kompriband")
	require.NotNil(t, first)
	for i := 0; i < 20; i++ {
		again := matcher.Match(context.Background(), "Abdichtung der Fugen mit Kompriband")
		require.NotNil(t, again)
		assert.Equal(t, first.ItemCode, again.ItemCode)
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}

// ---------------------------------------------------------------------------
// Embedding blending
// ---------------------------------------------------------------------------

func TestMatch_ConfidentLexicalSkipsEmbedder(t *testing.T) {
	stub := &stubEmbedder{}
	matcher := semantic.NewMatcher(semantic.Catalog, semantic.WithEmbedder(stub))

	// exact alias hit with several tokens scores above the confident top
	match := matcher.Match(context.Background(), "Daemmung der Einbaufuge mit PU Schaum")
	require.NotNil(t, match)
	assert.Equal(t, semantic.MethodLexical, match.Method)
	assert.Zero(t, stub.calls)
}

func TestMatch_EmbedderFailureDegradesToLexical(t *testing.T) {
	matcher := semantic.NewMatcher(semantic.Catalog, semantic.WithEmbedder(semantic.Disabled{}))

	// a mid-confidence line: wouldn't clear the confident top, so the
	// embedder is consulted and its failure must not sink the match
	match := matcher.Match(context.Background(), "Fugen abdichten und versiegeln")
	require.NotNil(t, match)
	assert.Equal(t, "fugen_abdichtung", match.ItemCode)
	assert.Equal(t, semantic.MethodLexical, match.Method)
	assert.Nil(t, match.EmbeddingScore)
}

func TestMatch_CustomFloor(t *testing.T) {
	strict := semantic.NewMatcher(semantic.Catalog, semantic.WithMinConfidence(0.99))
	assert.Nil(t, strict.Match(context.Background(), "Fugendichtheit herstellen"))

	lax := semantic.NewMatcher(semantic.Catalog, semantic.WithMinConfidence(0.10))
	assert.NotNil(t, lax.Match(context.Background(), "Fugendichtheit herstellen"))
}

// ---------------------------------------------------------------------------
// Caching
// ---------------------------------------------------------------------------

func TestCachedEmbedder(t *testing.T) {
	stub := &stubEmbedder{vectors: map[string][]float32{"": {1, 0, 0}}}
	cached := semantic.NewCachedEmbedder(stub)

	_, err := cached.Embed(context.Background(), "Fensterbank außen")
	require.NoError(t, err)
	// same text after normalization hits the cache
	_, err = cached.Embed(context.Background(), "fensterbank aussen")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
}

// ---------------------------------------------------------------------------
// Provider construction
// ---------------------------------------------------------------------------

func TestNewGenAIEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := semantic.NewGenAIEmbedder(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}
