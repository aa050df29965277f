// SPDX-License-Identifier: Apache-2.0

package snippets

import "context"

// Snippet is one candidate requirement passage found in an already
// extracted document text.
type Snippet struct {
	DocID        string
	Page         int
	SnippetType  string
	Quote        string
	BBox         []float64
	SectionID    string
	SectionTitle string
}

// SourceDocument describes the raw input to the snippet pipeline. Content
// is extracted text; fetching and OCR happen upstream.
type SourceDocument struct {
	Content []byte
	Format  string
	ID      string
}

// Parser detects requirement snippets in one document format.
type Parser interface {
	CanHandle(doc SourceDocument) bool
	Scan(ctx context.Context, doc SourceDocument) ([]Snippet, error)
	Name() string
}
