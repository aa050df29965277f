// SPDX-License-Identifier: Apache-2.0

package rules

// Condition is one field comparison inside a compiled spec.
type Condition struct {
	Field             string   `yaml:"field" json:"field"`
	Op                string   `yaml:"op" json:"op"`
	Value             any      `yaml:"value" json:"value"`
	Unit              string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	EvidenceRequired  bool     `yaml:"evidence_required,omitempty" json:"evidence_required,omitempty"`
	SeverityIfMissing Severity `yaml:"severity_if_missing,omitempty" json:"severity_if_missing,omitempty"`
}

// Threshold is a named technical condition.
type Threshold struct {
	Name      string    `yaml:"name" json:"name"`
	Condition Condition `yaml:"condition" json:"condition"`
}

// RequiredField names a dotted path that must be present in the merged
// case+offer context before any further checks run.
type RequiredField struct {
	Path              string   `yaml:"path" json:"path"`
	SeverityIfMissing Severity `yaml:"severity_if_missing" json:"severity_if_missing"`
}

// Exclusion turns a matched condition set into a non-PASS outcome.
type Exclusion struct {
	WhenAllOf  []Condition    `yaml:"when_all_of" json:"when_all_of"`
	Result     DecisionStatus `yaml:"result" json:"result"`
	MessageKey string         `yaml:"message_key,omitempty" json:"message_key,omitempty"`
}

// Eligibility is the conjunctive predicate set of a spec.
type Eligibility struct {
	AllOf      []Condition `yaml:"all_of" json:"all_of"`
	AnyOf      []Condition `yaml:"any_of" json:"any_of"`
	Exclusions []Exclusion `yaml:"exclusions" json:"exclusions"`
}

// SplitWhen is the predicate of a cost split rule. Value holds a category
// string for "==" or a token list for "contains_any".
type SplitWhen struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value" json:"value"`
}

// SplitRule maps a matching line item to a cost decision.
type SplitRule struct {
	When   SplitWhen `yaml:"when" json:"when"`
	Result string    `yaml:"result" json:"result"`
}

// CostRules groups the cost classification tables of a spec.
type CostRules struct {
	EligibleCostCategories   []string    `yaml:"eligible_cost_categories" json:"eligible_cost_categories"`
	IneligibleCostCategories []string    `yaml:"ineligible_cost_categories" json:"ineligible_cost_categories"`
	SplitRules               []SplitRule `yaml:"split_rules" json:"split_rules"`
}

// DocEntry is one documentation demand.
type DocEntry struct {
	Doc               string   `yaml:"doc" json:"doc"`
	SeverityIfMissing Severity `yaml:"severity_if_missing" json:"severity_if_missing"`
}

// Documentation lists supporting documents a measure asks for.
type Documentation struct {
	MustHave   []DocEntry `yaml:"must_have" json:"must_have"`
	NiceToHave []DocEntry `yaml:"nice_to_have" json:"nice_to_have"`
}

// TechnicalRequirements are the numeric conditions of a spec.
type TechnicalRequirements struct {
	Thresholds         []Threshold      `yaml:"thresholds" json:"thresholds"`
	CalculationMethods []map[string]any `yaml:"calculation_methods" json:"calculation_methods"`
}

// SpecScope constrains which buildings a measure applies to.
type SpecScope struct {
	Component                string   `yaml:"component" json:"component"`
	RequiresExistingBuilding bool     `yaml:"requires_existing_building" json:"requires_existing_building"`
	BuildingTypes            []string `yaml:"building_types" json:"building_types"`
	ExcludesNewBuild         bool     `yaml:"excludes_new_build" json:"excludes_new_build"`
}

// LegalRef points at the normative basis of a spec.
type LegalRef struct {
	DocID    string `yaml:"doc_id" json:"doc_id"`
	Section  string `yaml:"section" json:"section"`
	Priority int    `yaml:"priority" json:"priority"`
}

// Messages carries the output message keys downstream renderers use.
type Messages struct {
	PassSummaryKey      string   `yaml:"pass_summary_key" json:"pass_summary_key"`
	ClarifyQuestionKeys []string `yaml:"clarify_questions_keys" json:"clarify_questions_keys"`
}

// Outputs groups everything a spec contributes to rendered output.
type Outputs struct {
	Messages Messages `yaml:"messages" json:"messages"`
}

// MeasureSpec is the compiled, activatable rule bundle for one funding
// measure. Specs are superseded on recompilation, never mutated.
type MeasureSpec struct {
	MeasureID             string                `yaml:"measure_id" json:"measure_id"`
	Module                string                `yaml:"module" json:"module"`
	Title                 string                `yaml:"title" json:"title"`
	Version               string                `yaml:"version" json:"version"`
	LegalBasis            []LegalRef            `yaml:"legal_basis" json:"legal_basis"`
	Scope                 SpecScope             `yaml:"scope" json:"scope"`
	RequiredFields        []RequiredField       `yaml:"required_fields" json:"required_fields"`
	Eligibility           Eligibility           `yaml:"eligibility" json:"eligibility"`
	TechnicalRequirements TechnicalRequirements `yaml:"technical_requirements" json:"technical_requirements"`
	CostRules             CostRules             `yaml:"cost_rules" json:"cost_rules"`
	Documentation         Documentation         `yaml:"documentation" json:"documentation"`
	Outputs               Outputs               `yaml:"outputs" json:"outputs"`
}
