// SPDX-License-Identifier: Apache-2.0

// Package compiler turns extracted requirement records into compiled,
// versioned measure specifications, detects value conflicts between
// requirements, and projects the flat lookup tables and the distribution
// bundle.
package compiler

import (
	"strings"

	"github.com/dennisfleischmann/fs-bafa-check/internal/normalize"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// baselineRequiredFields seed every compiled spec: a measure without a
// component type can never proceed, one without an input mode needs
// clarification. This is the safety floor that keeps a spec from being
// emitted with zero constraints.
func baselineRequiredFields() []rules.RequiredField {
	return []rules.RequiredField{
		{Path: "offer.component_type", SeverityIfMissing: rules.SeverityAbort},
		{Path: "offer.input_mode", SeverityIfMissing: rules.SeverityClarify},
	}
}

func baselineEligibility(exclusions []rules.Exclusion) rules.Eligibility {
	return rules.Eligibility{
		AllOf: []rules.Condition{
			{Field: "building.is_existing", Op: "==", Value: true},
		},
		AnyOf:      []rules.Condition{},
		Exclusions: exclusions,
	}
}

func baselineCostRules() rules.CostRules {
	return rules.CostRules{
		EligibleCostCategories:   []string{"material", "montage"},
		IneligibleCostCategories: []string{"finanzierung", "wartung", "eigenleistung"},
		SplitRules: []rules.SplitRule{
			{
				When:   rules.SplitWhen{Field: "line_item.category", Op: "==", Value: "geruest"},
				Result: "ELIGIBLE_IF_NECESSARY",
			},
		},
	}
}

// requirementCondition lifts a threshold payload into a spec condition.
// Payloads that are not threshold-shaped contribute nothing.
func requirementCondition(req rules.Requirement) (rules.Condition, bool) {
	tr, ok := req.ThresholdPayload()
	if !ok {
		return rules.Condition{}, false
	}
	severity := req.SeverityIfMissing
	if severity == "" {
		severity = rules.SeverityClarify
	}
	return rules.Condition{
		Field:             tr.Field,
		Op:                tr.Op,
		Value:             tr.Value,
		Unit:              tr.Unit,
		SeverityIfMissing: severity,
		EvidenceRequired:  true,
	}, true
}

func titleFromMeasureID(measureID string) string {
	words := strings.Split(strings.ReplaceAll(measureID, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// CompileMeasureSpecs groups requirements by their scoped measure id and
// synthesizes one spec per group. Requirements are processed in stable input
// order; the group's component comes from its first requirement.
func CompileMeasureSpecs(requirements []rules.Requirement, version string) map[string]rules.MeasureSpec {
	grouped := make(map[string][]rules.Requirement)
	var order []string
	for _, req := range requirements {
		measure := req.Scope.Measure
		if measure == "" {
			continue
		}
		if _, seen := grouped[measure]; !seen {
			order = append(order, measure)
		}
		grouped[measure] = append(grouped[measure], req)
	}

	compiled := make(map[string]rules.MeasureSpec, len(order))
	for _, measureID := range order {
		reqs := grouped[measureID]
		component := reqs[0].Scope.Component
		if component == "" {
			component = "unknown"
		}

		var conditions []rules.Condition
		var exclusions []rules.Exclusion
		var documentation []rules.DocEntry

		for _, req := range reqs {
			switch req.ReqType {
			case rules.ReqTechThreshold:
				if condition, ok := requirementCondition(req); ok {
					conditions = append(conditions, condition)
				}
			case rules.ReqExclusion:
				exclusions = append(exclusions, rules.Exclusion{
					WhenAllOf: []rules.Condition{
						{Field: "derived.exclusion_hit", Op: "==", Value: true},
					},
					Result:     rules.StatusClarify,
					MessageKey: "clarify_exclusion",
				})
			case rules.ReqDocRequirement:
				severity := req.SeverityIfMissing
				if severity == "" {
					severity = rules.SeverityClarify
				}
				documentation = append(documentation, rules.DocEntry{
					Doc:               "supporting_document",
					SeverityIfMissing: severity,
				})
			}
		}

		thresholds := make([]rules.Threshold, 0, len(conditions))
		for _, condition := range conditions {
			thresholds = append(thresholds, rules.Threshold{Name: "threshold", Condition: condition})
		}

		compiled[measureID] = rules.MeasureSpec{
			MeasureID:  measureID,
			Module:     "envelope",
			Title:      titleFromMeasureID(measureID),
			Version:    version,
			LegalBasis: []rules.LegalRef{{DocID: "compiled", Section: "auto", Priority: 100}},
			Scope: rules.SpecScope{
				Component:                component,
				RequiresExistingBuilding: true,
				BuildingTypes:            []string{"WG", "NWG"},
				ExcludesNewBuild:         true,
			},
			RequiredFields: baselineRequiredFields(),
			Eligibility:    baselineEligibility(exclusions),
			TechnicalRequirements: rules.TechnicalRequirements{
				Thresholds:         thresholds,
				CalculationMethods: []map[string]any{},
			},
			CostRules: baselineCostRules(),
			Documentation: rules.Documentation{
				MustHave:   documentation,
				NiceToHave: []rules.DocEntry{},
			},
			Outputs: rules.Outputs{
				Messages: rules.Messages{
					PassSummaryKey:      "pass_default",
					ClarifyQuestionKeys: []string{"ask_missing_documents"},
				},
			},
		}
	}
	return compiled
}

// Conflict is a detected disagreement between two requirements over the
// same (measure, component, field, op) key.
type Conflict struct {
	Existing rules.Requirement
	Incoming rules.Requirement
}

type conflictKey struct {
	measure   string
	component string
	field     string
	op        string
}

// valuesDiffer compares threshold values numerically when both parse, and
// by canonical text otherwise.
func valuesDiffer(a, b any) bool {
	fa, aok := normalize.ParseFloat(a)
	fb, bok := normalize.ParseFloat(b)
	if aok && bok {
		return fa != fb
	}
	return normalize.CanonicalAny(a) != normalize.CanonicalAny(b)
}

// DetectConflicts indexes threshold requirements by (measure, component,
// field, op). The first requirement per key is the baseline; later entries
// with a differing value are reported against the current baseline and
// replace it when their priority is greater or equal (a tie keeps the later
// entry). Arrival order therefore matters as much as priority.
func DetectConflicts(requirements []rules.Requirement) []Conflict {
	index := make(map[conflictKey]rules.Requirement)
	var conflicts []Conflict
	for _, req := range requirements {
		if req.ReqType != rules.ReqTechThreshold {
			continue
		}
		tr, ok := req.ThresholdPayload()
		if !ok {
			continue
		}
		key := conflictKey{
			measure:   req.Scope.Measure,
			component: req.Scope.Component,
			field:     tr.Field,
			op:        tr.Op,
		}
		existing, seen := index[key]
		if !seen {
			index[key] = req
			continue
		}
		existingTR, _ := existing.ThresholdPayload()
		if valuesDiffer(existingTR.Value, tr.Value) {
			conflicts = append(conflicts, Conflict{Existing: existing, Incoming: req})
			if req.Priority >= existing.Priority {
				index[key] = req
			}
		}
	}
	return conflicts
}
