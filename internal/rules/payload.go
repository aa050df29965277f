// SPDX-License-Identifier: Apache-2.0

package rules

// RuleKind tags the concrete shape of a requirement's rule payload.
type RuleKind string

const (
	KindThreshold RuleKind = "threshold"
	KindCostSplit RuleKind = "cost_split"
	KindDoc       RuleKind = "documentation"
	KindFreeText  RuleKind = "free_text"
)

// RulePayload is the tagged union over the known rule payload shapes.
// Consumers type-switch over the concrete variants; a payload that does not
// fit a consumer's expected kind contributes nothing.
type RulePayload interface {
	Kind() RuleKind
}

// ThresholdRule is a numeric comparison a measure must satisfy. Value stays
// untyped because extraction can produce non-numeric text; the evidence
// binding guard decides whether that is an error.
type ThresholdRule struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op" json:"op"`
	Value any    `yaml:"value" json:"value"`
	Unit  string `yaml:"unit,omitempty" json:"unit,omitempty"`
}

func (ThresholdRule) Kind() RuleKind { return KindThreshold }

// CostSplitRule maps a line-item predicate to a cost eligibility outcome.
type CostSplitRule struct {
	When   SplitWhen `yaml:"when" json:"when"`
	Result string    `yaml:"result" json:"result"`
}

func (CostSplitRule) Kind() RuleKind { return KindCostSplit }

// DocRule demands a supporting document.
type DocRule struct {
	Doc string `yaml:"doc" json:"doc"`
}

func (DocRule) Kind() RuleKind { return KindDoc }

// FreeTextRule carries a requirement the compiler could not structure.
type FreeTextRule struct {
	Text string `yaml:"text" json:"text"`
}

func (FreeTextRule) Kind() RuleKind { return KindFreeText }

// ThresholdPayload returns the requirement's threshold payload, if it has one.
func (r Requirement) ThresholdPayload() (ThresholdRule, bool) {
	tr, ok := r.Rule.(ThresholdRule)
	return tr, ok
}

// PayloadForType rebuilds the typed payload from a decoded rule mapping.
// Unknown or incomplete shapes degrade to a FreeTextRule so that decoding a
// requirement log is total.
func PayloadForType(reqType ReqType, raw map[string]any) RulePayload {
	text, _ := raw["text"].(string)
	switch reqType {
	case ReqTechThreshold:
		field, fok := raw["field"].(string)
		op, ook := raw["op"].(string)
		if fok && ook {
			unit, _ := raw["unit"].(string)
			return ThresholdRule{Field: field, Op: op, Value: raw["value"], Unit: unit}
		}
		return FreeTextRule{Text: text}
	case ReqDocRequirement:
		if doc, ok := raw["doc"].(string); ok {
			return DocRule{Doc: doc}
		}
		return FreeTextRule{Text: text}
	case ReqCostEligibility:
		when, wok := raw["when"].(map[string]any)
		result, rok := raw["result"].(string)
		if wok && rok {
			field, _ := when["field"].(string)
			op, _ := when["op"].(string)
			return CostSplitRule{
				When:   SplitWhen{Field: field, Op: op, Value: when["value"]},
				Result: result,
			}
		}
		return FreeTextRule{Text: text}
	default:
		return FreeTextRule{Text: text}
	}
}

// PayloadToMap flattens a payload back into its wire mapping.
func PayloadToMap(p RulePayload) map[string]any {
	switch v := p.(type) {
	case ThresholdRule:
		m := map[string]any{"field": v.Field, "op": v.Op, "value": v.Value}
		if v.Unit != "" {
			m["unit"] = v.Unit
		}
		return m
	case CostSplitRule:
		return map[string]any{
			"when":   map[string]any{"field": v.When.Field, "op": v.When.Op, "value": v.When.Value},
			"result": v.Result,
		}
	case DocRule:
		return map[string]any{"doc": v.Doc}
	case FreeTextRule:
		return map[string]any{"text": v.Text}
	default:
		return map[string]any{}
	}
}
