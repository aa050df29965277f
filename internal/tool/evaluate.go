// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dennisfleischmann/fs-bafa-check/internal/config"
	"github.com/dennisfleischmann/fs-bafa-check/internal/engine"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
	"github.com/dennisfleischmann/fs-bafa-check/internal/ruleset"
)

// MetadataEvaluateCase describes the evaluate_case tool.
var MetadataEvaluateCase = &mcp.Tool{
	Name: "evaluate_case",
	Description: "Evaluate structured offer facts against the compiled ruleset. " +
		"Every measure of the offer is checked independently through the ordered " +
		"decision chain (required fields, eligibility, derived values, thresholds, " +
		"cost split) and gets a PASS, FAIL, CLARIFY or ABORT result with a machine-" +
		"readable reason, the evidence used, and clarification questions where the " +
		"decision needs applicant input. High-risk cases additionally produce an " +
		"escalation ticket for human review.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"base_dir", "offer_facts"},
		"properties": map[string]interface{}{
			"base_dir": map[string]interface{}{
				"type":        "string",
				"description": "Workspace directory holding the compiled rules/.",
			},
			"offer_facts": map[string]interface{}{
				"type":        "string",
				"description": "Offer facts document as YAML or JSON: case_id, building, applicant, offer.measures, docs.",
			},
			"quality_flags": map[string]interface{}{
				"type":        "array",
				"description": "Intake quality flags (e.g. ocr_required, unknown_doc_type) feeding the escalation risk score.",
				"items":       map[string]interface{}{"type": "string"},
			},
		},
	},
}

// InputEvaluateCase is the input for the EvaluateCase tool.
type InputEvaluateCase struct {
	BaseDir      string   `json:"base_dir"`
	OfferFacts   string   `json:"offer_facts"`
	QualityFlags []string `json:"quality_flags"`
}

// OutputEvaluateCase is the output for the EvaluateCase tool.
type OutputEvaluateCase struct {
	// Report is the full evaluation report.
	Report rules.EvaluationReport `json:"report"`
	// Escalation is set when the case's risk score crossed the threshold.
	Escalation *engine.EscalationTicket `json:"escalation,omitempty"`
}

// EvaluateCase validates and evaluates one offer-facts document.
func EvaluateCase(_ context.Context, _ *mcp.CallToolRequest, input InputEvaluateCase) (*mcp.CallToolResult, OutputEvaluateCase, error) {
	if input.BaseDir == "" {
		return nil, OutputEvaluateCase{}, fmt.Errorf("base_dir is required")
	}
	if input.OfferFacts == "" {
		return nil, OutputEvaluateCase{}, fmt.Errorf("offer_facts is required")
	}

	var facts map[string]any
	if err := yaml.Unmarshal([]byte(input.OfferFacts), &facts); err != nil {
		return nil, OutputEvaluateCase{}, fmt.Errorf("decoding offer facts: %w", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		return nil, OutputEvaluateCase{}, err
	}
	outcome, err := ruleset.Evaluate(ruleset.Workspace{Base: input.BaseDir}, facts, input.QualityFlags, cfg, zap.NewNop())
	if err != nil {
		return nil, OutputEvaluateCase{}, err
	}

	return nil, OutputEvaluateCase{
		Report:     outcome.Report,
		Escalation: outcome.Escalation,
	}, nil
}
