// SPDX-License-Identifier: Apache-2.0

package snippets

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// snippetRecord is the wire form of a pre-annotated snippet.
type snippetRecord struct {
	DocID        string    `yaml:"doc_id"`
	Page         int       `yaml:"page"`
	SnippetType  string    `yaml:"snippet_type"`
	Quote        string    `yaml:"quote"`
	BBox         []float64 `yaml:"bbox"`
	SectionID    string    `yaml:"section_id"`
	SectionTitle string    `yaml:"section_title"`
}

// YAMLParser reads pre-annotated snippet files. Manual review produces
// these: a YAML list of quotes with locations, bypassing text detection.
type YAMLParser struct{}

// NewYAMLParser creates a YAMLParser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

func (p *YAMLParser) Name() string {
	return "yaml"
}

// CanHandle accepts an explicit yaml format hint or a .yaml/.yml document
// ID.
func (p *YAMLParser) CanHandle(doc SourceDocument) bool {
	if doc.Format == "yaml" {
		return true
	}
	id := strings.ToLower(doc.ID)
	return strings.HasSuffix(id, ".yaml") || strings.HasSuffix(id, ".yml")
}

// Scan decodes the snippet list. Records without a quote are skipped;
// missing doc IDs and pages fall back to the document's own.
func (p *YAMLParser) Scan(_ context.Context, doc SourceDocument) ([]Snippet, error) {
	var records []snippetRecord
	if err := yaml.Unmarshal(doc.Content, &records); err != nil {
		return nil, fmt.Errorf("decoding snippet file %q: %w", doc.ID, err)
	}

	var found []Snippet
	for _, rec := range records {
		if strings.TrimSpace(rec.Quote) == "" {
			continue
		}
		docID := rec.DocID
		if docID == "" {
			docID = doc.ID
		}
		page := rec.Page
		if page <= 0 {
			page = 1
		}
		snippetType := rec.SnippetType
		if snippetType == "" {
			snippetType = "paragraph"
		}
		found = append(found, Snippet{
			DocID:        docID,
			Page:         page,
			SnippetType:  snippetType,
			Quote:        rec.Quote,
			BBox:         rec.BBox,
			SectionID:    rec.SectionID,
			SectionTitle: rec.SectionTitle,
		})
	}
	return found, nil
}
