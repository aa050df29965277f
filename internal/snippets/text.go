// SPDX-License-Identifier: Apache-2.0

package snippets

import (
	"context"
	"regexp"
	"strings"
)

// requirementPattern marks lines that plausibly carry a funding rule:
// modal verbs, eligibility vocabulary, or a numeric threshold.
var requirementPattern = regexp.MustCompile(`(?i)(muss|darf\s+nicht|voraussetzung|foerderfaehig|nicht\s+foerderfaehig|<=|>=|uw|u-wert)`)

// TextParser scans plain extracted text line by line. Form feeds advance
// the page counter; lines joined with " | " are treated as table rows.
type TextParser struct{}

// NewTextParser creates a new TextParser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

func (p *TextParser) Name() string {
	return "text"
}

// CanHandle accepts any document; the text parser is the fallback and must
// be registered last.
func (p *TextParser) CanHandle(doc SourceDocument) bool {
	return true
}

func (p *TextParser) Scan(_ context.Context, doc SourceDocument) ([]Snippet, error) {
	var found []Snippet
	page := 1
	for _, line := range strings.Split(string(doc.Content), "\n") {
		if strings.Contains(line, "\f") {
			page += strings.Count(line, "\f")
			line = strings.ReplaceAll(line, "\f", "")
		}
		text := strings.TrimSpace(line)
		if text == "" || !requirementPattern.MatchString(text) {
			continue
		}
		snippetType := "paragraph"
		if strings.Contains(text, " | ") {
			snippetType = "table_row"
		}
		found = append(found, Snippet{
			DocID:       doc.ID,
			Page:        page,
			SnippetType: snippetType,
			Quote:       text,
		})
	}
	return found, nil
}
