// SPDX-License-Identifier: Apache-2.0

package tool_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
	"github.com/dennisfleischmann/fs-bafa-check/internal/tool"
)

// ---------------------------------------------------------------------------
// compile_ruleset
// ---------------------------------------------------------------------------

func TestCompileRuleset(t *testing.T) {
	input := tool.InputCompileRuleset{
		BaseDir: t.TempDir(),
		Documents: []tool.InputDocument{
			{
				DocID:    "infoblatt_aussenwand",
				Content:  "3.1 Aussenwand\nDer U-Wert muss hoechstens 0,20 W/(m2K) betragen.",
				Priority: 1,
			},
		},
	}

	_, output, err := tool.CompileRuleset(context.Background(), nil, input)
	require.NoError(t, err)
	assert.True(t, output.Activated, "errors: %v", output.Errors)
	assert.NotEmpty(t, output.RulesetVersion)
}

func TestCompileRuleset_InputValidation(t *testing.T) {
	tests := []struct {
		name  string
		input tool.InputCompileRuleset
	}{
		{name: "missing base_dir", input: tool.InputCompileRuleset{
			Documents: []tool.InputDocument{{DocID: "d", Content: "muss"}},
		}},
		{name: "no documents", input: tool.InputCompileRuleset{BaseDir: "x"}},
		{name: "document without content", input: tool.InputCompileRuleset{
			BaseDir:   "x",
			Documents: []tool.InputDocument{{DocID: "d"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tool.CompileRuleset(context.Background(), nil, tt.input)
			assert.Error(t, err)
		})
	}
}

// ---------------------------------------------------------------------------
// evaluate_case
// ---------------------------------------------------------------------------

func TestEvaluateCase(t *testing.T) {
	baseDir := t.TempDir()

	// compile first so the workspace holds activatable specs
	_, compiled, err := tool.CompileRuleset(context.Background(), nil, tool.InputCompileRuleset{
		BaseDir: baseDir,
		Documents: []tool.InputDocument{
			{DocID: "infoblatt_aussenwand", Content: "3.1 Aussenwand\nDer U-Wert muss hoechstens 0,20 W/(m2K) betragen.", Priority: 1},
		},
	})
	require.NoError(t, err)
	require.True(t, compiled.Activated)

	facts := `case_id: case-mcp
building:
  is_existing: true
applicant: {}
docs: {}
offer:
  measures:
    - measure_id: envelope_aussenwand
      component_type: aussenwand
      input_mode: direct_values
      values:
        u_value_target:
          value: 0.18
          unit: W/(m2K)
`

	_, output, err := tool.EvaluateCase(context.Background(), nil, tool.InputEvaluateCase{
		BaseDir:    baseDir,
		OfferFacts: facts,
	})
	require.NoError(t, err)
	assert.Equal(t, "case-mcp", output.Report.CaseID)
	require.Len(t, output.Report.Results, 1)
	assert.Equal(t, rules.StatusPass, output.Report.Results[0].Status)
	assert.Nil(t, output.Escalation)
}

func TestEvaluateCase_MalformedFactsRejected(t *testing.T) {
	_, _, err := tool.EvaluateCase(context.Background(), nil, tool.InputEvaluateCase{
		BaseDir:    t.TempDir(),
		OfferFacts: "building: {}\n",
	})
	require.Error(t, err)
}

func TestEvaluateCase_InputValidation(t *testing.T) {
	_, _, err := tool.EvaluateCase(context.Background(), nil, tool.InputEvaluateCase{OfferFacts: "x: 1"})
	assert.Error(t, err)

	_, _, err = tool.EvaluateCase(context.Background(), nil, tool.InputEvaluateCase{BaseDir: "x"})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// match_offer_line
// ---------------------------------------------------------------------------

func TestMatchOfferLine(t *testing.T) {
	_, output, err := tool.MatchOfferLine(context.Background(), nil, tool.InputMatchOfferLine{
		Text: "Liefern und Montieren von Kunststofffenstern, Fenstertausch",
	})
	require.NoError(t, err)
	require.True(t, output.Matched)
	require.NotNil(t, output.Match)
	assert.Equal(t, "fenster", output.Match.Component)
}

func TestMatchOfferLine_NoMatchBelowFloor(t *testing.T) {
	_, output, err := tool.MatchOfferLine(context.Background(), nil, tool.InputMatchOfferLine{
		Text:          "Fenstertausch",
		MinConfidence: 0.999,
	})
	require.NoError(t, err)
	assert.False(t, output.Matched)
	assert.Nil(t, output.Match)
}

func TestMatchOfferLine_EmptyTextRejected(t *testing.T) {
	_, _, err := tool.MatchOfferLine(context.Background(), nil, tool.InputMatchOfferLine{})
	assert.Error(t, err)
}
