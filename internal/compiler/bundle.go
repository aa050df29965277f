// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// ThresholdRow is one flattened threshold for lookup tooling.
type ThresholdRow struct {
	Component string           `yaml:"component" json:"component"`
	Case      string           `yaml:"case" json:"case"`
	Field     string           `yaml:"field" json:"field"`
	Op        string           `yaml:"op" json:"op"`
	Value     any              `yaml:"value" json:"value"`
	Unit      string           `yaml:"unit,omitempty" json:"unit,omitempty"`
	Evidence  []rules.Evidence `yaml:"evidence" json:"evidence"`
}

// Tables groups the flat projections of the requirement log.
type Tables struct {
	Thresholds []ThresholdRow `yaml:"thresholds" json:"thresholds"`
}

// Taxonomy is the canonical vocabulary shipped with a bundle.
type Taxonomy struct {
	Components     map[string][]string `yaml:"components" json:"components"`
	CostCategories map[string][]string `yaml:"cost_categories" json:"cost_categories"`
}

// BundleMeta records where a bundle came from.
type BundleMeta struct {
	ManifestGeneratedAt string `yaml:"manifest_generated_at" json:"manifest_generated_at"`
	DocCount            int    `yaml:"doc_count" json:"doc_count"`
}

// Bundle is the compiled ruleset distribution envelope.
type Bundle struct {
	Meta     BundleMeta                   `yaml:"bundle_meta" json:"bundle_meta"`
	Measures map[string]rules.MeasureSpec `yaml:"measures" json:"measures"`
	Tables   Tables                       `yaml:"tables" json:"tables"`
	Taxonomy Taxonomy                     `yaml:"taxonomy" json:"taxonomy"`
	Version  string                       `yaml:"version" json:"version"`
}

// CompileTables flattens every threshold requirement into one lookup row.
// Pure projection, no decision logic.
func CompileTables(requirements []rules.Requirement) Tables {
	var rows []ThresholdRow
	for _, req := range requirements {
		if req.ReqType != rules.ReqTechThreshold {
			continue
		}
		tr, ok := req.ThresholdPayload()
		if !ok {
			continue
		}
		component := req.Scope.Component
		if component == "" {
			component = "unknown"
		}
		caseName := req.Scope.Case
		if caseName == "" {
			caseName = "default"
		}
		rows = append(rows, ThresholdRow{
			Component: component,
			Case:      caseName,
			Field:     tr.Field,
			Op:        tr.Op,
			Value:     tr.Value,
			Unit:      tr.Unit,
			Evidence:  req.Evidence,
		})
	}
	return Tables{Thresholds: rows}
}

// CompileBundle assembles the distribution envelope. Pure projection.
func CompileBundle(meta BundleMeta, measures map[string]rules.MeasureSpec, tables Tables, taxonomy Taxonomy, version string) Bundle {
	return Bundle{
		Meta:     meta,
		Measures: measures,
		Tables:   tables,
		Taxonomy: taxonomy,
		Version:  version,
	}
}

// defaultThreshold builds the fallback threshold condition for a measure.
func defaultThreshold(value float64) rules.Threshold {
	return rules.Threshold{
		Name: "u_or_uw_max",
		Condition: rules.Condition{
			Field:             "derived.u_value_target",
			Op:                "<=",
			Value:             value,
			Unit:              "W/(m2K)",
			SeverityIfMissing: rules.SeverityClarify,
			EvidenceRequired:  true,
		},
	}
}

// MergeSpecs folds freshly compiled specs over the previously persisted
// ones. When compilation produced no thresholds for a measure (extraction
// found nothing new), thresholds and calculation methods are carried
// forward from the previous spec, else from the default-threshold table.
// Manual edits to a previous spec therefore survive an empty extraction
// run, while real updates still propagate.
func MergeSpecs(compiled, previous map[string]rules.MeasureSpec, defaults map[string]float64) map[string]rules.MeasureSpec {
	merged := make(map[string]rules.MeasureSpec, len(previous)+len(compiled))
	for id, spec := range previous {
		merged[id] = spec
	}

	for id, spec := range compiled {
		if len(spec.TechnicalRequirements.Thresholds) == 0 {
			if prev, ok := previous[id]; ok && len(prev.TechnicalRequirements.Thresholds) > 0 {
				spec.TechnicalRequirements.Thresholds = prev.TechnicalRequirements.Thresholds
				if len(spec.TechnicalRequirements.CalculationMethods) == 0 {
					spec.TechnicalRequirements.CalculationMethods = prev.TechnicalRequirements.CalculationMethods
				}
			} else if value, ok := defaults[id]; ok {
				spec.TechnicalRequirements.Thresholds = []rules.Threshold{defaultThreshold(value)}
			}
		}
		merged[id] = spec
	}

	// Last resort: every measure with a configured default must end up with
	// at least one numeric threshold.
	for id, value := range defaults {
		spec, ok := merged[id]
		if !ok {
			continue
		}
		if len(spec.TechnicalRequirements.Thresholds) == 0 {
			spec.TechnicalRequirements.Thresholds = []rules.Threshold{defaultThreshold(value)}
			merged[id] = spec
		}
	}

	return merged
}
