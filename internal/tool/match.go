// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dennisfleischmann/fs-bafa-check/internal/config"
	"github.com/dennisfleischmann/fs-bafa-check/internal/semantic"
)

// MetadataMatchOfferLine describes the match_offer_line tool.
var MetadataMatchOfferLine = &mcp.Tool{
	Name: "match_offer_line",
	Description: "Resolve a free-text German offer line item against the fixed intent " +
		"catalog of renovation work items. Matching is lexical (folded umlauts, German " +
		"suffix stemming, token overlap) with optional embedding-assisted blending; a " +
		"result below the confidence floor is returned as unmatched rather than guessed. " +
		"The response includes the matched item code, its component and measure, and the " +
		"confidence breakdown.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Offer line text, e.g. \"Liefern und Montieren von Kunststofffenstern\".",
			},
			"min_confidence": map[string]interface{}{
				"type":        "number",
				"description": "Override for the acceptance floor. Defaults to the configured floor (0.58).",
			},
		},
	},
}

// InputMatchOfferLine is the input for the MatchOfferLine tool.
type InputMatchOfferLine struct {
	Text          string  `json:"text"`
	MinConfidence float64 `json:"min_confidence"`
}

// OutputMatchOfferLine is the output for the MatchOfferLine tool.
type OutputMatchOfferLine struct {
	// Matched reports whether any catalog entry cleared the floor.
	Matched bool `json:"matched"`
	// Match is the winning entry with its confidence breakdown.
	Match *semantic.SemanticMatch `json:"match,omitempty"`
}

// MatchOfferLine scores one offer line against the intent catalog.
func MatchOfferLine(ctx context.Context, _ *mcp.CallToolRequest, input InputMatchOfferLine) (*mcp.CallToolResult, OutputMatchOfferLine, error) {
	if input.Text == "" {
		return nil, OutputMatchOfferLine{}, fmt.Errorf("text is required")
	}

	cfg, err := config.Load("")
	if err != nil {
		return nil, OutputMatchOfferLine{}, err
	}

	opts := []semantic.Option{semantic.WithMinConfidence(cfg.Semantic.MinConfidence)}
	if input.MinConfidence > 0 {
		opts = []semantic.Option{semantic.WithMinConfidence(input.MinConfidence)}
	}
	if cfg.EmbeddingsEnabled() {
		embedder, err := semantic.NewGenAIEmbedder(ctx, cfg.APIKey, cfg.Semantic.EmbeddingModel)
		if err == nil {
			opts = append(opts, semantic.WithEmbedder(semantic.NewCachedEmbedder(embedder)))
		}
	}

	matcher := semantic.NewMatcher(semantic.Catalog, opts...)
	match := matcher.Match(ctx, input.Text)
	return nil, OutputMatchOfferLine{Matched: match != nil, Match: match}, nil
}
