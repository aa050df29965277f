// SPDX-License-Identifier: Apache-2.0

// Package rules holds the shared data model of the rule compiler and the
// decision engine: requirements extracted from funding documents, compiled
// measure specifications, and the typed results both sides exchange.
package rules

// DecisionStatus is the outcome of evaluating one measure.
type DecisionStatus string

const (
	StatusPass    DecisionStatus = "PASS"
	StatusFail    DecisionStatus = "FAIL"
	StatusClarify DecisionStatus = "CLARIFY"
	StatusAbort   DecisionStatus = "ABORT"
)

// Severity controls which status a missing field or threshold value maps to.
type Severity string

const (
	SeverityPass    Severity = "PASS"
	SeverityFail    Severity = "FAIL"
	SeverityClarify Severity = "CLARIFY"
	SeverityAbort   Severity = "ABORT"
)

// Status maps a severity to the decision status it produces. This is the
// single mapping shared by required-field and threshold checks.
func (s Severity) Status() DecisionStatus {
	switch s {
	case SeverityAbort:
		return StatusAbort
	case SeverityFail:
		return StatusFail
	case SeverityPass:
		return StatusPass
	default:
		return StatusClarify
	}
}

// ReqType classifies an extracted requirement.
type ReqType string

const (
	ReqTechThreshold   ReqType = "TECH_THRESHOLD"
	ReqExclusion       ReqType = "EXCLUSION"
	ReqEligibility     ReqType = "ELIGIBILITY"
	ReqCostEligibility ReqType = "COST_ELIGIBILITY"
	ReqDocRequirement  ReqType = "DOC_REQUIREMENT"
	ReqSectionMarker   ReqType = "SECTION_MARKER"
	ReqProcessRule     ReqType = "PROCESS_RULE"
)

// Evidence is a verbatim citation into a source document. Evidence values
// are never mutated after creation.
type Evidence struct {
	DocID      string    `yaml:"doc_id" json:"doc_id"`
	Page       int       `yaml:"page" json:"page"`
	Quote      string    `yaml:"quote" json:"quote"`
	BBox       []float64 `yaml:"bbox,omitempty" json:"bbox,omitempty"`
	SourcePath string    `yaml:"source_path,omitempty" json:"source_path,omitempty"`
}

// Scope ties a requirement to a funding module, measure and component.
type Scope struct {
	Module       string `yaml:"module" json:"module"`
	Measure      string `yaml:"measure" json:"measure"`
	Component    string `yaml:"component" json:"component"`
	Case         string `yaml:"case,omitempty" json:"case,omitempty"`
	SectionID    string `yaml:"section_id,omitempty" json:"section_id,omitempty"`
	SectionTitle string `yaml:"section_title,omitempty" json:"section_title,omitempty"`
	SourceDocID  string `yaml:"source_doc_id,omitempty" json:"source_doc_id,omitempty"`
}

// Requirement is one candidate rule extracted from a document snippet.
// Requirements are immutable once written to the requirement log.
type Requirement struct {
	ReqID             string      `yaml:"req_id" json:"req_id"`
	ReqType           ReqType     `yaml:"req_type" json:"req_type"`
	Scope             Scope       `yaml:"scope" json:"scope"`
	Rule              RulePayload `yaml:"-" json:"-"`
	SeverityIfMissing Severity    `yaml:"severity_if_missing" json:"severity_if_missing"`
	Priority          int         `yaml:"priority" json:"priority"`
	Evidence          []Evidence  `yaml:"evidence" json:"evidence"`
}
