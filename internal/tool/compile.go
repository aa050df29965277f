// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the checker over MCP: ruleset compilation, case
// evaluation and offer-line matching. Each tool is a metadata variable,
// an input/output struct pair and a handler.
package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dennisfleischmann/fs-bafa-check/internal/config"
	"github.com/dennisfleischmann/fs-bafa-check/internal/ruleset"
)

// MetadataCompileRuleset describes the compile_ruleset tool.
var MetadataCompileRuleset = &mcp.Tool{
	Name: "compile_ruleset",
	Description: "Compile funding rule documents into a versioned, activatable ruleset. " +
		"Each document is scanned for requirement passages (thresholds, exclusions, " +
		"eligibility, cost and documentation rules), synthesized into per-measure " +
		"specifications, and checked by the guard suite. The ruleset only goes active " +
		"when every guard passes; the build report lists all guard errors and warnings.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"base_dir", "documents"},
		"properties": map[string]interface{}{
			"base_dir": map[string]interface{}{
				"type":        "string",
				"description": "Workspace directory holding rules/ and data/.",
			},
			"documents": map[string]interface{}{
				"type":        "array",
				"description": "Source documents to compile, in priority order.",
				"items": map[string]interface{}{
					"type":     "object",
					"required": []string{"doc_id", "content"},
					"properties": map[string]interface{}{
						"doc_id": map[string]interface{}{
							"type":        "string",
							"description": "Stable document identifier; component assignment keys off it (fenster, dach, kellerdecke).",
						},
						"content": map[string]interface{}{
							"type":        "string",
							"description": "Extracted document text, or a YAML snippet list.",
						},
						"format": map[string]interface{}{
							"type":        "string",
							"description": "Format hint. One of: yaml, text. Auto-detected when omitted.",
							"enum":        []string{"yaml", "text"},
						},
						"priority": map[string]interface{}{
							"type":        "integer",
							"description": "Conflict priority; higher wins against earlier documents.",
						},
					},
				},
			},
		},
	},
}

// InputDocument is one source document of a compile request.
type InputDocument struct {
	DocID    string `json:"doc_id"`
	Content  string `json:"content"`
	Format   string `json:"format"`
	Priority int    `json:"priority"`
}

// InputCompileRuleset is the input for the CompileRuleset tool.
type InputCompileRuleset struct {
	BaseDir   string          `json:"base_dir"`
	Documents []InputDocument `json:"documents"`
}

// OutputCompileRuleset is the output for the CompileRuleset tool.
type OutputCompileRuleset struct {
	// RulesetVersion identifies the produced ruleset.
	RulesetVersion string `json:"ruleset_version"`
	// Activated reports whether the bundle went active.
	Activated bool `json:"activated"`
	// Errors are the guard errors that blocked activation.
	Errors []string `json:"errors"`
	// Warnings are non-blocking guard findings.
	Warnings []string `json:"warnings"`
}

// CompileRuleset compiles the provided documents into the workspace's
// ruleset and reports the activation outcome.
func CompileRuleset(ctx context.Context, _ *mcp.CallToolRequest, input InputCompileRuleset) (*mcp.CallToolResult, OutputCompileRuleset, error) {
	if input.BaseDir == "" {
		return nil, OutputCompileRuleset{}, fmt.Errorf("base_dir is required")
	}
	if len(input.Documents) == 0 {
		return nil, OutputCompileRuleset{}, fmt.Errorf("at least one document is required")
	}

	sources := make([]ruleset.SourceInput, 0, len(input.Documents))
	for _, doc := range input.Documents {
		if doc.DocID == "" || doc.Content == "" {
			return nil, OutputCompileRuleset{}, fmt.Errorf("every document needs doc_id and content")
		}
		sources = append(sources, ruleset.SourceInput{
			DocID:    doc.DocID,
			Content:  []byte(doc.Content),
			Format:   doc.Format,
			Priority: doc.Priority,
		})
	}

	cfg, err := config.Load("")
	if err != nil {
		return nil, OutputCompileRuleset{}, err
	}
	report, err := ruleset.Build(ctx, ruleset.Workspace{Base: input.BaseDir}, sources, cfg, zap.NewNop())
	if err != nil {
		return nil, OutputCompileRuleset{}, err
	}

	return nil, OutputCompileRuleset{
		RulesetVersion: report.RulesetVersion,
		Activated:      report.ValidationPassed,
		Errors:         report.Errors,
		Warnings:       report.Warnings,
	}, nil
}
