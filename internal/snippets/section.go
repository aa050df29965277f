// SPDX-License-Identifier: Apache-2.0

package snippets

import (
	"context"
	"regexp"
	"strings"
)

// headingPattern matches numbered Infoblatt headings like "2.4 Kosten" or
// markdown headings carrying such a number.
var headingPattern = regexp.MustCompile(`^#*\s*(\d+(?:\.\d+)*)\s+(.+)$`)

// SectionParser scans documents whose headings carry section numbers, so
// each snippet keeps the section it came from. The coverage manifest guard
// depends on that metadata.
type SectionParser struct{}

// NewSectionParser creates a new SectionParser.
func NewSectionParser() *SectionParser {
	return &SectionParser{}
}

func (p *SectionParser) Name() string {
	return "sectioned"
}

// CanHandle accepts documents with the "sectioned" format hint or whose
// content contains at least one numbered heading.
func (p *SectionParser) CanHandle(doc SourceDocument) bool {
	if strings.EqualFold(doc.Format, "sectioned") || strings.EqualFold(doc.Format, "infoblatt") {
		return true
	}
	for _, line := range strings.Split(string(doc.Content), "\n") {
		if headingPattern.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func (p *SectionParser) Scan(_ context.Context, doc SourceDocument) ([]Snippet, error) {
	var found []Snippet
	var sectionID, sectionTitle string
	page := 1

	for _, line := range strings.Split(string(doc.Content), "\n") {
		if strings.Contains(line, "\f") {
			page += strings.Count(line, "\f")
			line = strings.ReplaceAll(line, "\f", "")
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if m := headingPattern.FindStringSubmatch(text); m != nil {
			sectionID = m[1]
			sectionTitle = strings.TrimSpace(m[2])
			continue
		}
		if !requirementPattern.MatchString(text) {
			continue
		}
		snippetType := "paragraph"
		if strings.Contains(text, " | ") {
			snippetType = "table_row"
		}
		found = append(found, Snippet{
			DocID:        doc.ID,
			Page:         page,
			SnippetType:  snippetType,
			Quote:        text,
			SectionID:    sectionID,
			SectionTitle: sectionTitle,
		})
	}
	return found, nil
}
