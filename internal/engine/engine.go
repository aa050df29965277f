// SPDX-License-Identifier: Apache-2.0

// Package engine evaluates submitted offer measures against compiled
// measure specifications. Evaluation is a strictly ordered, short-circuit
// state machine: the first definitive check decides the reported reason.
// Malformed per-measure data becomes a CLARIFY or ABORT result, never an
// error, so one broken measure cannot abort the rest of the case.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dennisfleischmann/fs-bafa-check/internal/costs"
	"github.com/dennisfleischmann/fs-bafa-check/internal/derived"
	"github.com/dennisfleischmann/fs-bafa-check/internal/normalize"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// Options carries the per-run configuration of the engine.
type Options struct {
	// ThresholdDefaults are fallback U-value thresholds keyed by component,
	// used by the derived-value calculation when a spec supplies none.
	ThresholdDefaults map[string]float64
}

// extractEvidence collects the offer measure's evidence quotes. Every
// result carries them, whatever the outcome.
func extractEvidence(measure map[string]any) []rules.Evidence {
	raw, _ := measure["evidence"].([]any)
	evidence := make([]rules.Evidence, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ev := rules.Evidence{DocID: "offer", Page: 1}
		if docID, ok := m["doc_id"].(string); ok && docID != "" {
			ev.DocID = docID
		}
		if page, ok := normalize.ParseFloat(m["page"]); ok {
			ev.Page = int(page)
		}
		if quote, ok := m["quote"].(string); ok {
			ev.Quote = quote
		}
		if bbox, ok := m["bbox"].([]any); ok {
			for _, v := range bbox {
				if f, ok := normalize.ParseFloat(v); ok {
					ev.BBox = append(ev.BBox, f)
				}
			}
		}
		if path, ok := m["source_path"].(string); ok {
			ev.SourcePath = path
		}
		evidence = append(evidence, ev)
	}
	return evidence
}

// EvaluateMeasure runs one offer measure through its spec. Checks run in
// spec order and the first failing check determines the result.
func EvaluateMeasure(caseContext, measure map[string]any, spec *rules.MeasureSpec, opts Options) rules.EvaluationResult {
	measureID, _ := measure["measure_id"].(string)
	if measureID == "" {
		measureID = "unknown_measure"
	}
	evidence := extractEvidence(measure)

	if spec == nil {
		return rules.EvaluationResult{
			MeasureID:    measureID,
			Status:       rules.StatusClarify,
			Reason:       "missing_measure_spec",
			UsedEvidence: evidence,
			Questions:    []string{"Massnahme konnte keinem Regelpaket zugeordnet werden."},
		}
	}

	merged := make(map[string]any, len(caseContext)+2)
	for key, value := range caseContext {
		merged[key] = value
	}
	merged["offer"] = measure

	for _, field := range spec.RequiredFields {
		if isEmpty(DottedGet(merged, field.Path)) {
			return rules.EvaluationResult{
				MeasureID:    measureID,
				Status:       field.SeverityIfMissing.Status(),
				Reason:       "missing_required_field:" + field.Path,
				UsedEvidence: evidence,
				Questions:    []string{"Bitte Feld nachreichen: " + field.Path},
			}
		}
	}

	for _, rule := range spec.Eligibility.AllOf {
		left := DottedGet(merged, rule.Field)
		if !Compare(left, rule.Op, rule.Value) {
			return rules.EvaluationResult{
				MeasureID:    measureID,
				Status:       rules.StatusFail,
				Reason:       "eligibility_failed:" + rule.Field,
				UsedEvidence: evidence,
			}
		}
	}

	merged["derived"] = derived.DeriveMeasure(measure, opts.ThresholdDefaults)

	for _, threshold := range spec.TechnicalRequirements.Thresholds {
		condition := threshold.Condition
		current := DottedGet(merged, condition.Field)

		if current == nil {
			severity := condition.SeverityIfMissing
			if severity == "" {
				severity = rules.SeverityClarify
			}
			return rules.EvaluationResult{
				MeasureID:    measureID,
				Status:       severity.Status(),
				Reason:       "missing_threshold_value:" + condition.Field,
				UsedEvidence: evidence,
				Questions:    []string{fmt.Sprintf("Bitte Nachweis fuer %s nachreichen.", condition.Field)},
			}
		}

		if !Compare(current, condition.Op, condition.Value) {
			return rules.EvaluationResult{
				MeasureID:    measureID,
				Status:       rules.StatusFail,
				Reason:       "threshold_failed:" + condition.Field,
				UsedEvidence: evidence,
			}
		}
	}

	costSummary := costs.Evaluate(measure, spec.CostRules)

	return rules.EvaluationResult{
		MeasureID:    measureID,
		Status:       rules.StatusPass,
		Reason:       "all_checks_passed",
		UsedEvidence: evidence,
		CostSummary:  &costSummary,
	}
}

// EvaluateCase evaluates every measure of an offer against the active spec
// set. Measures are independent; results keep offer order.
func EvaluateCase(offerFacts map[string]any, specs map[string]rules.MeasureSpec, rulesetVersion string, opts Options) rules.EvaluationReport {
	caseID, _ := offerFacts["case_id"].(string)
	if caseID == "" {
		caseID = "unknown_case"
	}

	context := map[string]any{}
	for _, key := range []string{"building", "applicant", "docs"} {
		if value, ok := offerFacts[key].(map[string]any); ok {
			context[key] = value
		} else {
			context[key] = map[string]any{}
		}
	}

	var results []rules.EvaluationResult
	if offer, ok := offerFacts["offer"].(map[string]any); ok {
		if measures, ok := offer["measures"].([]any); ok {
			for _, raw := range measures {
				measure, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				var spec *rules.MeasureSpec
				if measureID, ok := measure["measure_id"].(string); ok {
					if s, found := specs[measureID]; found {
						spec = &s
					}
				}
				results = append(results, EvaluateMeasure(context, measure, spec, opts))
			}
		}
	}

	return rules.EvaluationReport{
		CaseID:         caseID,
		ReportID:       uuid.NewString(),
		GeneratedAt:    time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		RulesetVersion: rulesetVersion,
		Results:        results,
	}
}
