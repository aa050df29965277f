// SPDX-License-Identifier: Apache-2.0

// Package semantic resolves free-text offer lines to entries of a fixed
// intent catalog. Scoring is lexical (token overlap with a light German
// stemmer) and optionally blended with embedding similarity when a provider
// is configured. Without a provider matching is fully deterministic.
package semantic

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultMinConfidence is the floor below which no match is returned.
const DefaultMinConfidence = 0.58

// lexicalConfidentTop is the lexical score above which the embedding
// provider is not consulted at all.
const lexicalConfidentTop = 0.85

// Method tags on a SemanticMatch. Audit-critical consumers may choose to
// trust only lexical matches.
const (
	MethodLexical   = "lexical"
	MethodHybrid    = "hybrid"
	MethodEmbedding = "embedding"
)

// SemanticMatch is a resolved offer line with its confidence breakdown.
type SemanticMatch struct {
	ItemCode       string   `yaml:"item_code" json:"item_code"`
	Component      string   `yaml:"component" json:"component"`
	MeasureID      string   `yaml:"measure_id" json:"measure_id"`
	Category       string   `yaml:"category" json:"category"`
	Confidence     float64  `yaml:"confidence" json:"confidence"`
	Method         string   `yaml:"method" json:"method"`
	LexicalScore   float64  `yaml:"lexical_score" json:"lexical_score"`
	EmbeddingScore *float64 `yaml:"embedding_score,omitempty" json:"embedding_score,omitempty"`
}

// Matcher scores offer lines against an immutable intent catalog.
type Matcher struct {
	catalog       []IntentEntry
	embedder      Embedder
	minConfidence float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithEmbedder enables embedding-assisted blending. The embedder should be
// wrapped in a CachedEmbedder by the caller.
func WithEmbedder(e Embedder) Option {
	return func(m *Matcher) { m.embedder = e }
}

// WithMinConfidence overrides the acceptance floor.
func WithMinConfidence(floor float64) Option {
	return func(m *Matcher) { m.minConfidence = floor }
}

// NewMatcher builds a matcher over the given catalog.
func NewMatcher(catalog []IntentEntry, opts ...Option) *Matcher {
	m := &Matcher{catalog: catalog, minConfidence: DefaultMinConfidence}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// German umlauts and sharp s fold to their digraph spellings before any
// scoring, matching how offers themselves often spell them.
var diacriticFolder = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeText(text string) string {
	value := diacriticFolder.Replace(strings.ToLower(text))
	value = nonAlnum.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(value), " ")
}

// stemSuffixes are removed in order when the remaining stem keeps at least
// three characters.
var stemSuffixes = []string{"innen", "ungen", "chen", "lich", "keit", "heit", "ung", "en", "er", "es", "e", "n", "s"}

func stemToken(token string) string {
	for _, suffix := range stemSuffixes {
		if strings.HasSuffix(token, suffix) && len(token) > len(suffix)+2 {
			return token[:len(token)-len(suffix)]
		}
	}
	return token
}

func tokenize(text string) []string {
	normalized := normalizeText(text)
	raw := tokenPattern.FindAllString(normalized, -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		stemmed := stemToken(token)
		if len(stemmed) >= 2 {
			tokens = append(tokens, stemmed)
		}
	}
	return tokens
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// aliasSimilarity scores one alias against the normalized text. An exact
// substring hit scores at least 0.86 with a token-count bonus capped at 1.0;
// otherwise the score blends alias-token precision and text-token recall.
func aliasSimilarity(textNormalized string, textTokens map[string]bool, alias string) float64 {
	aliasNormalized := normalizeText(alias)
	aliasTokens := tokenSet(tokenize(aliasNormalized))
	if len(aliasTokens) == 0 {
		return 0
	}
	if aliasNormalized != "" && strings.Contains(textNormalized, aliasNormalized) {
		bonusTokens := len(aliasTokens)
		if bonusTokens > 5 {
			bonusTokens = 5
		}
		return math.Min(1.0, 0.86+0.02*float64(bonusTokens))
	}

	overlap := 0
	for token := range aliasTokens {
		if textTokens[token] {
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}
	precision := float64(overlap) / float64(len(aliasTokens))
	recall := float64(overlap) / float64(max(1, len(textTokens)))
	return precision*0.7 + recall*0.3
}

type rankedEntry struct {
	entry IntentEntry
	score float64
}

// lexicalRank scores every catalog entry by its best alias similarity and
// sorts descending, keeping catalog order for ties.
func (m *Matcher) lexicalRank(text string) []rankedEntry {
	textNormalized := normalizeText(text)
	textTokens := tokenSet(tokenize(textNormalized))
	ranked := make([]rankedEntry, 0, len(m.catalog))
	for _, entry := range m.catalog {
		best := 0.0
		for _, alias := range entry.Aliases {
			if s := aliasSimilarity(textNormalized, textTokens, alias); s > best {
				best = s
			}
		}
		ranked = append(ranked, rankedEntry{entry: entry, score: best})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	return ranked
}

// embeddingRank returns embedding similarity per item code. Any provider
// failure shrinks the result, never raises.
func (m *Matcher) embeddingRank(ctx context.Context, text string) map[string]float64 {
	query, err := m.embedder.Embed(ctx, normalizeText(text))
	if err != nil || len(query) == 0 {
		return nil
	}
	scores := make(map[string]float64, len(m.catalog))
	for _, entry := range m.catalog {
		vector, err := m.embedder.Embed(ctx, entry.EmbeddingText())
		if err != nil || len(vector) == 0 {
			continue
		}
		scores[entry.ItemCode] = cosineSimilarity(query, vector)
	}
	return scores
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Match resolves one offer line, or returns nil when no catalog entry
// reaches the confidence floor. With no embedder configured the result is a
// pure function of the input text.
func (m *Matcher) Match(ctx context.Context, text string) *SemanticMatch {
	ranked := m.lexicalRank(text)
	if len(ranked) == 0 {
		return nil
	}
	top := ranked[0]
	method := MethodLexical
	confidence := top.score
	lexicalTop := top.score
	var embeddingScore *float64

	if m.embedder != nil && lexicalTop < lexicalConfidentTop {
		if scores := m.embeddingRank(ctx, text); len(scores) > 0 {
			method = MethodHybrid
			embedTop := scores[top.entry.ItemCode]
			embeddingScore = &embedTop
			confidence = math.Max(lexicalTop, lexicalTop*0.65+embedTop*0.35)

			bestCode, bestScore := "", math.Inf(-1)
			for code, score := range scores {
				if score > bestScore || (score == bestScore && code < bestCode) {
					bestCode, bestScore = code, score
				}
			}
			if bestCode != top.entry.ItemCode && bestScore > confidence {
				for _, candidate := range ranked {
					if candidate.entry.ItemCode == bestCode {
						top = candidate
						lexicalTop = candidate.score
						break
					}
				}
				confidence = bestScore
				embeddingScore = &bestScore
				method = MethodEmbedding
			}
		}
	}

	if confidence < m.minConfidence {
		return nil
	}

	match := &SemanticMatch{
		ItemCode:     top.entry.ItemCode,
		Component:    top.entry.Component,
		MeasureID:    top.entry.MeasureID,
		Category:     top.entry.Category,
		Confidence:   round4(confidence),
		Method:       method,
		LexicalScore: round4(lexicalTop),
	}
	if embeddingScore != nil {
		rounded := round4(*embeddingScore)
		match.EmbeddingScore = &rounded
	}
	return match
}
