// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisfleischmann/fs-bafa-check/internal/compiler"
	"github.com/dennisfleischmann/fs-bafa-check/internal/engine"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

var testOptions = engine.Options{
	ThresholdDefaults: map[string]float64{"aussenwand": 0.20, "dach": 0.14},
}

func wallSpec() rules.MeasureSpec {
	return compiler.BootstrapSpec("envelope_aussenwand", 0.20)
}

func baseContext() map[string]any {
	return map[string]any{
		"building":  map[string]any{"is_existing": true},
		"applicant": map[string]any{"name": "Beispiel GmbH"},
		"docs":      map[string]any{},
	}
}

func wallMeasure() map[string]any {
	return map[string]any{
		"measure_id":     "envelope_aussenwand",
		"component_type": "aussenwand",
		"input_mode":     "direct_values",
		"values": map[string]any{
			"u_value_target": map[string]any{"value": 0.18, "unit": "W/(m2K)"},
		},
		"evidence": []any{
			map[string]any{"doc_id": "angebot_1", "page": 2, "quote": "U-Wert 0,18 W/(m2K)"},
		},
		"line_items": []any{
			map[string]any{"description": "Daemmplatten", "category": "material", "amount": 5000.0},
			map[string]any{"description": "Geruest", "category": "geruest", "amount": 120.0},
		},
	}
}

// ---------------------------------------------------------------------------
// EvaluateMeasure: the ordered decision chain
// ---------------------------------------------------------------------------

func TestEvaluateMeasure_Pass(t *testing.T) {
	spec := wallSpec()
	result := engine.EvaluateMeasure(baseContext(), wallMeasure(), &spec, testOptions)

	assert.Equal(t, rules.StatusPass, result.Status)
	assert.Equal(t, "all_checks_passed", result.Reason)
	require.NotNil(t, result.CostSummary)
	assert.InDelta(t, 5000.0, result.CostSummary.EligibleTotal, 1e-9)
	assert.InDelta(t, 120.0, result.CostSummary.ConditionalTotal, 1e-9)
	require.Len(t, result.UsedEvidence, 1)
	assert.Equal(t, "angebot_1", result.UsedEvidence[0].DocID)
}

func TestEvaluateMeasure_MissingSpec(t *testing.T) {
	result := engine.EvaluateMeasure(baseContext(), wallMeasure(), nil, testOptions)

	assert.Equal(t, rules.StatusClarify, result.Status)
	assert.Equal(t, "missing_measure_spec", result.Reason)
	assert.Equal(t, []string{"Massnahme konnte keinem Regelpaket zugeordnet werden."}, result.Questions)
	// evidence still travels with the result
	assert.NotEmpty(t, result.UsedEvidence)
}

func TestEvaluateMeasure_MissingRequiredField(t *testing.T) {
	spec := wallSpec()
	measure := wallMeasure()
	delete(measure, "component_type")

	result := engine.EvaluateMeasure(baseContext(), measure, &spec, testOptions)

	// offer.component_type carries ABORT severity in the baseline
	assert.Equal(t, rules.StatusAbort, result.Status)
	assert.Equal(t, "missing_required_field:offer.component_type", result.Reason)
	assert.Equal(t, []string{"Bitte Feld nachreichen: offer.component_type"}, result.Questions)
}

func TestEvaluateMeasure_EligibilityFail(t *testing.T) {
	spec := wallSpec()
	context := baseContext()
	context["building"] = map[string]any{"is_existing": false}

	result := engine.EvaluateMeasure(context, wallMeasure(), &spec, testOptions)

	assert.Equal(t, rules.StatusFail, result.Status)
	assert.Equal(t, "eligibility_failed:building.is_existing", result.Reason)
}

func TestEvaluateMeasure_MissingThresholdValue(t *testing.T) {
	spec := wallSpec()
	measure := wallMeasure()
	measure["values"] = map[string]any{}

	result := engine.EvaluateMeasure(baseContext(), measure, &spec, testOptions)

	assert.Equal(t, rules.StatusClarify, result.Status)
	assert.Equal(t, "missing_threshold_value:derived.u_value_target", result.Reason)
	assert.Equal(t, []string{"Bitte Nachweis fuer derived.u_value_target nachreichen."}, result.Questions)
}

func TestEvaluateMeasure_ThresholdFail(t *testing.T) {
	spec := wallSpec()
	measure := wallMeasure()
	measure["values"] = map[string]any{
		"u_value_target": map[string]any{"value": 0.35},
	}

	result := engine.EvaluateMeasure(baseContext(), measure, &spec, testOptions)

	assert.Equal(t, rules.StatusFail, result.Status)
	assert.Equal(t, "threshold_failed:derived.u_value_target", result.Reason)
	assert.Nil(t, result.CostSummary)
}

func TestEvaluateMeasure_LayersMode(t *testing.T) {
	spec := wallSpec()
	measure := map[string]any{
		"measure_id":     "envelope_aussenwand",
		"component_type": "aussenwand",
		"input_mode":     "layers",
		"layers": []any{
			map[string]any{"d_m": 0.16, "lambda": 0.035, "material": "MW 035"},
		},
	}

	result := engine.EvaluateMeasure(baseContext(), measure, &spec, testOptions)
	// 16 cm mineral wool lands around U=0.21, above the 0.20 threshold
	assert.Equal(t, rules.StatusFail, result.Status)

	measure["layers"] = []any{map[string]any{"d_m": 0.20, "lambda": 0.035}}
	result = engine.EvaluateMeasure(baseContext(), measure, &spec, testOptions)
	assert.Equal(t, rules.StatusPass, result.Status)
}

// ---------------------------------------------------------------------------
// EvaluateCase
// ---------------------------------------------------------------------------

func TestEvaluateCase(t *testing.T) {
	specs := map[string]rules.MeasureSpec{
		"envelope_aussenwand": wallSpec(),
	}
	facts := map[string]any{
		"case_id":   "case-001",
		"building":  map[string]any{"is_existing": true},
		"applicant": map[string]any{},
		"docs":      map[string]any{},
		"offer": map[string]any{
			"measures": []any{
				wallMeasure(),
				map[string]any{"measure_id": "envelope_unbekannt", "component_type": "sonstiges"},
			},
		},
	}

	report := engine.EvaluateCase(facts, specs, "active", testOptions)

	assert.Equal(t, "case-001", report.CaseID)
	assert.NotEmpty(t, report.ReportID)
	assert.NotEmpty(t, report.GeneratedAt)
	assert.Equal(t, "active", report.RulesetVersion)
	require.Len(t, report.Results, 2)

	assert.Equal(t, rules.StatusPass, report.Results[0].Status)
	// the unmatched measure clarifies instead of failing the whole case
	assert.Equal(t, rules.StatusClarify, report.Results[1].Status)
	assert.Equal(t, "missing_measure_spec", report.Results[1].Reason)
}

func TestEvaluateCase_EmptyOffer(t *testing.T) {
	report := engine.EvaluateCase(map[string]any{"case_id": "case-002"}, nil, "active", testOptions)
	assert.Equal(t, "case-002", report.CaseID)
	assert.Empty(t, report.Results)
}

// ---------------------------------------------------------------------------
// Context access and comparison
// ---------------------------------------------------------------------------

func TestDottedGet(t *testing.T) {
	payload := map[string]any{
		"building": map[string]any{"is_existing": true},
		"offer": map[string]any{
			"measures": []any{
				map[string]any{"measure_id": "a"},
				map[string]any{"measure_id": "b"},
			},
		},
	}

	assert.Equal(t, true, engine.DottedGet(payload, "building.is_existing"))
	assert.Nil(t, engine.DottedGet(payload, "building.missing"))
	assert.Nil(t, engine.DottedGet(payload, "missing.path.entirely"))
	assert.Equal(t, []any{"a", "b"}, engine.DottedGet(payload, "offer.measures.measure_id[]"))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name  string
		left  any
		op    string
		right any
		want  bool
	}{
		{name: "equal bools", left: true, op: "==", right: true, want: true},
		{name: "numeric equality across notations", left: "0,20", op: "==", right: 0.2, want: true},
		{name: "less or equal holds", left: 0.18, op: "<=", right: 0.20, want: true},
		{name: "less or equal violated", left: 0.25, op: "<=", right: 0.20, want: false},
		{name: "ordered against missing operand is false", left: nil, op: "<=", right: 0.20, want: false},
		{name: "ordered against text is false", left: "keine Zahl", op: ">", right: 1, want: false},
		{name: "not equal", left: "WG", op: "!=", right: "NWG", want: true},
		{name: "unknown operator is false", left: 1, op: "~=", right: 1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Compare(tt.left, tt.op, tt.right))
		})
	}
}
