// SPDX-License-Identifier: Apache-2.0

package semantic

import (
	"context"
	"fmt"
	"math"
	"sync"

	"google.golang.org/genai"
)

// Embedder is the injected embedding capability. An implementation returns
// a vector for the given text, or an error when the provider is unavailable;
// the matcher degrades to pure-lexical scoring on any error.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Disabled is the explicit no-embeddings variant. It never returns a vector,
// which keeps the matcher deterministic and testable without any network.
type Disabled struct{}

// Embed always reports that embeddings are unavailable.
func (Disabled) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings disabled")
}

// GenAIEmbedder generates vectors with Google's Gemini embedding API.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

// NewGenAIEmbedder creates a Gemini-backed embedder.
func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model}, nil
}

// Embed fetches one embedding vector.
func (e *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: "SEMANTIC_SIMILARITY",
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return result.Embeddings[0].Values, nil
}

// CachedEmbedder memoizes vectors by normalized input text so repeated
// catalog lookups hit the provider once per text.
type CachedEmbedder struct {
	inner Embedder

	mu    sync.Mutex
	cache map[string][]float32
}

// NewCachedEmbedder wraps an embedder with a normalized-text cache.
func NewCachedEmbedder(inner Embedder) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: make(map[string][]float32)}
}

// Embed returns the cached vector for the normalized text, fetching and
// storing it on first use. Provider errors are not cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := normalizeText(text)
	c.mu.Lock()
	vector, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return vector, nil
	}
	vector, err := c.inner.Embed(ctx, key)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cache[key] = vector
	c.mu.Unlock()
	return vector, nil
}

// cosineSimilarity is the cosine of the angle between two vectors; zero for
// mismatched lengths or zero-magnitude inputs.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
