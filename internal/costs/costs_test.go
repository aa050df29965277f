// SPDX-License-Identifier: Apache-2.0

package costs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisfleischmann/fs-bafa-check/internal/costs"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

func standardRules() rules.CostRules {
	return rules.CostRules{
		EligibleCostCategories:   []string{"material", "montage"},
		IneligibleCostCategories: []string{"finanzierung", "wartung", "eigenleistung"},
		SplitRules: []rules.SplitRule{
			{
				When:   rules.SplitWhen{Field: "line_item.category", Op: "==", Value: "geruest"},
				Result: costs.DecisionEligibleIfNeeded,
			},
		},
	}
}

func measureWithItems(items ...map[string]any) map[string]any {
	raw := make([]any, 0, len(items))
	for _, item := range items {
		raw = append(raw, item)
	}
	return map[string]any{"line_items": raw}
}

// ---------------------------------------------------------------------------
// Evaluate
// ---------------------------------------------------------------------------

func TestEvaluate_CategoryBuckets(t *testing.T) {
	summary := costs.Evaluate(measureWithItems(
		map[string]any{"description": "Daemmplatten", "category": "material", "amount": 5000.0},
		map[string]any{"description": "Montage", "category": "montage", "amount": 2500.55},
		map[string]any{"description": "Kreditzinsen", "category": "finanzierung", "amount": 300.0},
		map[string]any{"description": "Sonstiges", "category": "posten", "amount": 99.0},
	), standardRules())

	assert.InDelta(t, 7500.55, summary.EligibleTotal, 1e-9)
	assert.InDelta(t, 300.0, summary.IneligibleTotal, 1e-9)
	// unclassified accumulates as conditional
	assert.InDelta(t, 99.0, summary.ConditionalTotal, 1e-9)
	require.Len(t, summary.Items, 4)
	assert.Equal(t, costs.DecisionUnclassified, summary.Items[3].Decision)
}

func TestEvaluate_SplitRuleWinsOverCategory(t *testing.T) {
	// geruest is neither eligible nor ineligible by category, but the split
	// rule must fire before the category fallback is even consulted
	summary := costs.Evaluate(measureWithItems(
		map[string]any{"description": "Geruest stellen", "category": "geruest", "amount": 120.0},
	), standardRules())

	require.Len(t, summary.Items, 1)
	assert.Equal(t, costs.DecisionEligibleIfNeeded, summary.Items[0].Decision)
	assert.InDelta(t, 120.00, summary.ConditionalTotal, 1e-9)
	assert.Zero(t, summary.EligibleTotal)
}

func TestEvaluate_DescriptionContainsAny(t *testing.T) {
	costRules := standardRules()
	costRules.SplitRules = append(costRules.SplitRules, rules.SplitRule{
		When: rules.SplitWhen{
			Field: "line_item.description",
			Op:    "contains_any",
			Value: []any{"einbaufuge", "anschlussfuge"},
		},
		Result: costs.DecisionEligible,
	})

	summary := costs.Evaluate(measureWithItems(
		map[string]any{"description": "Daemmung der Einbaufuge", "category": "posten", "amount": 120.0},
	), costRules)

	require.Len(t, summary.Items, 1)
	assert.Equal(t, costs.DecisionEligible, summary.Items[0].Decision)
	assert.InDelta(t, 120.00, summary.EligibleTotal, 1e-9)
}

func TestEvaluate_FirstMatchingSplitRuleDecides(t *testing.T) {
	costRules := standardRules()
	costRules.SplitRules = []rules.SplitRule{
		{
			When:   rules.SplitWhen{Field: "line_item.category", Op: "==", Value: "geruest"},
			Result: costs.DecisionIneligible,
		},
		{
			When:   rules.SplitWhen{Field: "line_item.category", Op: "==", Value: "geruest"},
			Result: costs.DecisionEligible,
		},
	}

	summary := costs.Evaluate(measureWithItems(
		map[string]any{"description": "Geruest", "category": "geruest", "amount": 50.0},
	), costRules)

	assert.Equal(t, costs.DecisionIneligible, summary.Items[0].Decision)
}

func TestEvaluate_AmountsParseGermanDecimals(t *testing.T) {
	summary := costs.Evaluate(measureWithItems(
		map[string]any{"description": "Montage", "category": "montage", "amount": "1234,50"},
	), standardRules())
	assert.InDelta(t, 1234.50, summary.EligibleTotal, 1e-9)
}

func TestEvaluate_NoLineItems(t *testing.T) {
	summary := costs.Evaluate(map[string]any{}, standardRules())
	assert.Zero(t, summary.EligibleTotal)
	assert.Zero(t, summary.IneligibleTotal)
	assert.Zero(t, summary.ConditionalTotal)
	assert.Empty(t, summary.Items)
}
