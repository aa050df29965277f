// SPDX-License-Identifier: Apache-2.0

package rules

// ItemDecision records how one offer line item was classified. The per-item
// trail is mandatory output so every cost decision stays auditable.
type ItemDecision struct {
	Description string  `yaml:"description" json:"description"`
	Category    string  `yaml:"category" json:"category"`
	Amount      float64 `yaml:"amount" json:"amount"`
	Decision    string  `yaml:"decision" json:"decision"`
}

// CostSummary is the cost eligibility breakdown of one measure.
type CostSummary struct {
	EligibleTotal    float64        `yaml:"eligible_total" json:"eligible_total"`
	IneligibleTotal  float64        `yaml:"ineligible_total" json:"ineligible_total"`
	ConditionalTotal float64        `yaml:"conditional_total" json:"conditional_total"`
	Items            []ItemDecision `yaml:"items" json:"items"`
}

// EvaluationResult is one measure's outcome. CostSummary is only present on
// PASS, Questions only on clarification paths.
type EvaluationResult struct {
	MeasureID    string         `yaml:"measure_id" json:"measure_id"`
	Status       DecisionStatus `yaml:"status" json:"status"`
	Reason       string         `yaml:"reason" json:"reason"`
	UsedEvidence []Evidence     `yaml:"used_evidence" json:"used_evidence"`
	Questions    []string       `yaml:"questions" json:"questions"`
	CostSummary  *CostSummary   `yaml:"cost_summary,omitempty" json:"cost_summary,omitempty"`
}

// EvaluationReport is the full outcome of one evaluation run.
type EvaluationReport struct {
	CaseID         string             `yaml:"case_id" json:"case_id"`
	ReportID       string             `yaml:"report_id" json:"report_id"`
	GeneratedAt    string             `yaml:"generated_at" json:"generated_at"`
	RulesetVersion string             `yaml:"ruleset_version" json:"ruleset_version"`
	Results        []EvaluationResult `yaml:"results" json:"results"`
}

// GuardResult is the outcome of one pre-activation validator. Errors block
// activation, warnings are surfaced for review only.
type GuardResult struct {
	OK       bool     `yaml:"ok" json:"ok"`
	Errors   []string `yaml:"errors" json:"errors"`
	Warnings []string `yaml:"warnings" json:"warnings"`
}

// CoverageSection is one section a source document must be represented by.
type CoverageSection struct {
	SectionID string `yaml:"section_id" json:"section_id"`
	Required  bool   `yaml:"required" json:"required"`
}

// CoverageManifest lists the sections of a source document that must have
// at least one extracted requirement before a ruleset may activate.
type CoverageManifest struct {
	SourceDocID string            `yaml:"source_doc_id" json:"source_doc_id"`
	Sections    []CoverageSection `yaml:"sections" json:"sections"`
}

// BuildReport summarizes one compilation run for the activation decision.
type BuildReport struct {
	RulesetVersion   string         `yaml:"ruleset_version" json:"ruleset_version"`
	ValidationPassed bool           `yaml:"validation_passed" json:"validation_passed"`
	Errors           []string       `yaml:"errors" json:"errors"`
	Warnings         []string       `yaml:"warnings" json:"warnings"`
	Coverage         map[string]any `yaml:"coverage_manifest,omitempty" json:"coverage_manifest,omitempty"`
}
