// SPDX-License-Identifier: Apache-2.0

// Package costs classifies offer line items into eligible, ineligible and
// conditional cost buckets under a spec's cost rules.
package costs

import (
	"math"
	"strings"

	"github.com/dennisfleischmann/fs-bafa-check/internal/normalize"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// Decisions a split rule or the category fallback can produce. Both
// ELIGIBLE_IF_NECESSARY and UNCLASSIFIED accumulate as conditional.
const (
	DecisionEligible         = "ELIGIBLE"
	DecisionIneligible       = "INELIGIBLE"
	DecisionEligibleIfNeeded = "ELIGIBLE_IF_NECESSARY"
	DecisionUnclassified     = "UNCLASSIFIED"
)

func normalizeText(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), " ")
}

// evaluateSplitRule returns the rule's declared outcome when the line item
// matches its predicate, or "" otherwise.
func evaluateSplitRule(category, description string, rule rules.SplitRule) string {
	if rule.Result == "" {
		return ""
	}
	switch {
	case rule.When.Field == "line_item.category" && rule.When.Op == "==":
		if expected, ok := rule.When.Value.(string); ok && category == expected {
			return rule.Result
		}
	case rule.When.Field == "line_item.description" && rule.When.Op == "contains_any":
		tokens, ok := rule.When.Value.([]any)
		if !ok {
			if list, sok := rule.When.Value.([]string); sok {
				for _, t := range list {
					tokens = append(tokens, t)
				}
			}
		}
		normalized := normalizeText(description)
		for _, token := range tokens {
			s, ok := token.(string)
			if !ok {
				continue
			}
			if strings.Contains(normalized, normalizeText(s)) {
				return rule.Result
			}
		}
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Evaluate splits a measure's line items under the given cost rules.
// Ordered split rules win over plain category membership; the first
// matching rule decides.
func Evaluate(measure map[string]any, costRules rules.CostRules) rules.CostSummary {
	eligibleSet := make(map[string]bool, len(costRules.EligibleCostCategories))
	for _, c := range costRules.EligibleCostCategories {
		eligibleSet[c] = true
	}
	ineligibleSet := make(map[string]bool, len(costRules.IneligibleCostCategories))
	for _, c := range costRules.IneligibleCostCategories {
		ineligibleSet[c] = true
	}

	var eligible, ineligible, conditional float64
	items := []rules.ItemDecision{}

	lineItems, _ := measure["line_items"].([]any)
	for _, raw := range lineItems {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		description, _ := item["description"].(string)
		category, _ := item["category"].(string)
		amount, _ := normalize.ParseFloat(item["amount"])

		decision := ""
		for _, rule := range costRules.SplitRules {
			if decision = evaluateSplitRule(category, description, rule); decision != "" {
				break
			}
		}
		if decision == "" {
			switch {
			case eligibleSet[category]:
				decision = DecisionEligible
			case ineligibleSet[category]:
				decision = DecisionIneligible
			default:
				decision = DecisionUnclassified
			}
		}

		switch decision {
		case DecisionEligible:
			eligible += amount
		case DecisionIneligible:
			ineligible += amount
		default:
			conditional += amount
		}

		items = append(items, rules.ItemDecision{
			Description: description,
			Category:    category,
			Amount:      amount,
			Decision:    decision,
		})
	}

	return rules.CostSummary{
		EligibleTotal:    round2(eligible),
		IneligibleTotal:  round2(ineligible),
		ConditionalTotal: round2(conditional),
		Items:            items,
	}
}
