// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dennisfleischmann/fs-bafa-check/internal/normalize"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
	"github.com/dennisfleischmann/fs-bafa-check/internal/snippets"
)

var (
	thresholdPattern = regexp.MustCompile(`([a-zA-Z_]+)?\s*([<>]=?)\s*([0-9]+[.,]?[0-9]*)`)
	uValuePattern    = regexp.MustCompile(`(?i)([0-9]+[.,]?[0-9]*)\s*(w/?\(?m2k\)?)`)
)

// InferReqType classifies a snippet quote. Exclusion vocabulary wins over
// eligibility vocabulary; a numeric threshold only decides when no more
// specific keyword matched.
func InferReqType(quote string) rules.ReqType {
	q := strings.ToLower(quote)
	normalized := normalize.Decimal(q)
	hasThreshold := thresholdPattern.MatchString(normalized) || uValuePattern.MatchString(normalized)

	switch {
	case strings.Contains(q, "nicht foerderfaehig"):
		return rules.ReqExclusion
	case strings.Contains(q, "foerderfaehig") && !hasThreshold:
		return rules.ReqEligibility
	case strings.Contains(q, "kosten"):
		return rules.ReqCostEligibility
	case strings.Contains(q, "nachweis"):
		return rules.ReqDocRequirement
	case hasThreshold:
		return rules.ReqTechThreshold
	default:
		return rules.ReqProcessRule
	}
}

// ExtractThreshold pulls a comparison triple out of a quote. The target
// field is always the derived U-value; offers never state it under another
// name. The second return is false when no comparison can be recovered.
func ExtractThreshold(quote string) (rules.ThresholdRule, bool) {
	normalized := normalize.Decimal(quote)
	if m := thresholdPattern.FindStringSubmatch(normalized); m != nil {
		if value, ok := normalize.ParseFloat(m[3]); ok {
			return rules.ThresholdRule{
				Field: "derived.u_value_target",
				Op:    m[2],
				Value: value,
				Unit:  "W/(m2K)",
			}, true
		}
	}
	if m := uValuePattern.FindStringSubmatch(normalized); m != nil {
		if value, ok := normalize.ParseFloat(m[1]); ok {
			return rules.ThresholdRule{
				Field: "derived.u_value_target",
				Op:    "<=",
				Value: value,
				Unit:  "W/(m2K)",
			}, true
		}
	}
	return rules.ThresholdRule{}, false
}

// SnippetsToRequirements converts detected snippets into requirement
// records for one measure. Threshold candidates without an extractable
// comparison are demoted to process rules so nothing is lost silently.
func SnippetsToRequirements(found []snippets.Snippet, measureID, component string, priority int) []rules.Requirement {
	records := make([]rules.Requirement, 0, len(found))
	for idx, snippet := range found {
		reqType := InferReqType(snippet.Quote)
		var payload rules.RulePayload
		if reqType == rules.ReqTechThreshold {
			threshold, ok := ExtractThreshold(snippet.Quote)
			if ok {
				payload = threshold
			} else {
				reqType = rules.ReqProcessRule
				payload = rules.FreeTextRule{Text: snippet.Quote}
			}
		} else {
			payload = rules.FreeTextRule{Text: snippet.Quote}
		}

		records = append(records, rules.Requirement{
			ReqID:   fmt.Sprintf("%s.%d", measureID, idx+1),
			ReqType: reqType,
			Scope: rules.Scope{
				Module:       "envelope",
				Measure:      measureID,
				Component:    component,
				Case:         "default",
				SectionID:    snippet.SectionID,
				SectionTitle: snippet.SectionTitle,
				SourceDocID:  snippet.DocID,
			},
			Rule:              payload,
			SeverityIfMissing: rules.SeverityClarify,
			Priority:          priority,
			Evidence: []rules.Evidence{
				{
					DocID: snippet.DocID,
					Page:  snippet.Page,
					Quote: snippet.Quote,
					BBox:  snippet.BBox,
				},
			},
		})
	}
	return records
}
