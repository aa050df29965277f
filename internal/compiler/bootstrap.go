// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"strings"

	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// BootstrapSpec builds the seed spec for a measure before any document has
// been compiled: baseline required fields and eligibility, the published
// default threshold, and the standard documentation demand. Bootstrap
// specs carry version "bootstrap" so a later real compilation is always
// distinguishable.
func BootstrapSpec(measureID string, threshold float64) rules.MeasureSpec {
	component := measureID
	if idx := strings.Index(measureID, "_"); idx >= 0 {
		component = measureID[idx+1:]
	}

	return rules.MeasureSpec{
		MeasureID:  measureID,
		Module:     "envelope",
		Title:      strings.ReplaceAll(measureID, "_", " "),
		Version:    "bootstrap",
		LegalBasis: []rules.LegalRef{{DocID: "bootstrap", Section: "seed", Priority: 1}},
		Scope: rules.SpecScope{
			Component:                component,
			RequiresExistingBuilding: true,
			BuildingTypes:            []string{"WG", "NWG"},
			ExcludesNewBuild:         true,
		},
		RequiredFields: []rules.RequiredField{
			{Path: "offer.component_type", SeverityIfMissing: rules.SeverityAbort},
			{Path: "building.is_existing", SeverityIfMissing: rules.SeverityClarify},
		},
		Eligibility: baselineEligibility([]rules.Exclusion{}),
		TechnicalRequirements: rules.TechnicalRequirements{
			Thresholds:         []rules.Threshold{defaultThreshold(threshold)},
			CalculationMethods: []map[string]any{},
		},
		CostRules: baselineCostRules(),
		Documentation: rules.Documentation{
			MustHave: []rules.DocEntry{
				{Doc: "Uwert_Nachweis_or_Layers", SeverityIfMissing: rules.SeverityClarify},
			},
			NiceToHave: []rules.DocEntry{},
		},
		Outputs: rules.Outputs{
			Messages: rules.Messages{
				PassSummaryKey:      "pass_generic",
				ClarifyQuestionKeys: []string{"ask_u_value_or_layers"},
			},
		},
	}
}
