// SPDX-License-Identifier: Apache-2.0

// Package snippets detects requirement-bearing passages in extracted
// regulatory document text. A pipeline picks the first parser that can
// handle a document; each parser emits Snippets carrying the verbatim
// quote plus its location, ready for requirement synthesis.
package snippets

import (
	"context"
	"fmt"
)

// Pipeline runs registered parsers over source documents.
type Pipeline struct {
	parsers []Parser
}

// NewPipeline creates a Pipeline with the provided parsers. Parser order
// matters: more specific parsers go first to avoid mis-detection.
func NewPipeline(parsers ...Parser) *Pipeline {
	return &Pipeline{parsers: parsers}
}

// RunResult is the output of a successful pipeline run.
type RunResult struct {
	Snippets   []Snippet
	ParserUsed string
}

// Run scans one document and returns its requirement snippets.
func (p *Pipeline) Run(ctx context.Context, doc SourceDocument) ([]Snippet, error) {
	result, err := p.RunWithMeta(ctx, doc)
	if err != nil {
		return nil, err
	}
	return result.Snippets, nil
}

// RunWithMeta scans one document and reports which parser handled it.
func (p *Pipeline) RunWithMeta(ctx context.Context, doc SourceDocument) (RunResult, error) {
	parser, err := p.selectParser(doc)
	if err != nil {
		return RunResult{}, err
	}

	found, err := parser.Scan(ctx, doc)
	if err != nil {
		return RunResult{}, fmt.Errorf("parser %q failed: %w", parser.Name(), err)
	}

	return RunResult{Snippets: found, ParserUsed: parser.Name()}, nil
}

// selectParser returns the first registered parser that can handle the
// given document.
func (p *Pipeline) selectParser(doc SourceDocument) (Parser, error) {
	for _, parser := range p.parsers {
		if parser.CanHandle(doc) {
			return parser, nil
		}
	}
	return nil, fmt.Errorf("unsupported document format: no parser found for %q (format hint: %q)", doc.ID, doc.Format)
}

// RegisteredParsers returns the names of all currently registered parsers.
func (p *Pipeline) RegisteredParsers() []string {
	names := make([]string, len(p.parsers))
	for i, parser := range p.parsers {
		names[i] = parser.Name()
	}
	return names
}

// DefaultPipeline registers the standard parsers: pre-annotated YAML
// snippet files first, then sectioned Infoblatt text, then plain text, so
// section metadata is kept whenever headings exist.
func DefaultPipeline() *Pipeline {
	return NewPipeline(
		NewYAMLParser(),
		NewSectionParser(),
		NewTextParser(),
	)
}
