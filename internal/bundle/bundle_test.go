// SPDX-License-Identifier: Apache-2.0

package bundle_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennisfleischmann/fs-bafa-check/internal/bundle"
	"github.com/dennisfleischmann/fs-bafa-check/internal/compiler"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// ---------------------------------------------------------------------------
// Requirement log
// ---------------------------------------------------------------------------

func TestRequirementsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules", "requirements.yaml")
	input := []rules.Requirement{
		{
			ReqID:   "envelope_fenster.1",
			ReqType: rules.ReqTechThreshold,
			Scope: rules.Scope{
				Module:      "envelope",
				Measure:     "envelope_fenster",
				Component:   "fenster",
				SectionID:   "3.2",
				SourceDocID: "infoblatt",
			},
			Rule:              rules.ThresholdRule{Field: "derived.u_value_target", Op: "<=", Value: 0.95, Unit: "W/(m2K)"},
			SeverityIfMissing: rules.SeverityClarify,
			Priority:          2,
			Evidence:          []rules.Evidence{{DocID: "infoblatt", Page: 4, Quote: "Uw <= 0,95 W/(m2K)"}},
		},
		{
			ReqID:    "envelope_fenster.2",
			ReqType:  rules.ReqEligibility,
			Scope:    rules.Scope{Measure: "envelope_fenster", Component: "fenster"},
			Rule:     rules.FreeTextRule{Text: "Die Massnahme muss an einem Bestandsgebaeude erfolgen."},
			Priority: 1,
		},
	}

	require.NoError(t, bundle.SaveRequirements(path, input))

	loaded, err := bundle.LoadRequirements(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "envelope_fenster.1", loaded[0].ReqID)
	assert.Equal(t, "3.2", loaded[0].Scope.SectionID)
	assert.Equal(t, 2, loaded[0].Priority)
	require.Len(t, loaded[0].Evidence, 1)
	assert.Equal(t, "Uw <= 0,95 W/(m2K)", loaded[0].Evidence[0].Quote)

	// the typed payload survives the map detour
	tr, ok := loaded[0].ThresholdPayload()
	require.True(t, ok)
	assert.Equal(t, "derived.u_value_target", tr.Field)
	assert.Equal(t, "<=", tr.Op)
	assert.Equal(t, 0.95, tr.Value)
	assert.Equal(t, "W/(m2K)", tr.Unit)

	_, ok = loaded[1].Rule.(rules.FreeTextRule)
	assert.True(t, ok)
}

func TestLoadRequirements_MissingFileIsEmptyLog(t *testing.T) {
	loaded, err := bundle.LoadRequirements(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

// ---------------------------------------------------------------------------
// Measure specs
// ---------------------------------------------------------------------------

func TestSpecsRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "measures")
	input := map[string]rules.MeasureSpec{
		"envelope_aussenwand": compiler.BootstrapSpec("envelope_aussenwand", 0.20),
		"envelope_dach":       compiler.BootstrapSpec("envelope_dach", 0.14),
	}

	require.NoError(t, bundle.SaveSpecs(dir, input))

	loaded, err := bundle.LoadSpecs(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	wall := loaded["envelope_aussenwand"]
	assert.Equal(t, "aussenwand", wall.Scope.Component)
	assert.Equal(t, "bootstrap", wall.Version)
	require.Len(t, wall.TechnicalRequirements.Thresholds, 1)
	assert.Equal(t, "derived.u_value_target", wall.TechnicalRequirements.Thresholds[0].Condition.Field)
	assert.Equal(t, 0.2, wall.TechnicalRequirements.Thresholds[0].Condition.Value)
	require.Len(t, wall.RequiredFields, 2)
	assert.Equal(t, rules.SeverityAbort, wall.RequiredFields[0].SeverityIfMissing)
}

func TestLoadSpecs_MissingDirIsEmptySet(t *testing.T) {
	loaded, err := bundle.LoadSpecs(filepath.Join(t.TempDir(), "measures"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

// ---------------------------------------------------------------------------
// Coverage manifest, bundle, offer facts
// ---------------------------------------------------------------------------

func TestCoverageManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage_manifest.yaml")
	input := rules.CoverageManifest{
		SourceDocID: "infoblatt",
		Sections: []rules.CoverageSection{
			{SectionID: "3.1", Required: true},
			{SectionID: "3.2", Required: false},
		},
	}

	require.NoError(t, bundle.SaveCoverageManifest(path, input))

	loaded, err := bundle.LoadCoverageManifest(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "infoblatt", loaded.SourceDocID)
	require.Len(t, loaded.Sections, 2)
	assert.True(t, loaded.Sections[0].Required)
}

func TestLoadCoverageManifest_MissingFileDisablesGuard(t *testing.T) {
	loaded, err := bundle.LoadCoverageManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestBundleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundles", "ruleset.bundle.yaml")
	specs := map[string]rules.MeasureSpec{
		"envelope_aussenwand": compiler.BootstrapSpec("envelope_aussenwand", 0.20),
	}
	input := compiler.CompileBundle(
		compiler.BundleMeta{ManifestGeneratedAt: "2026-08-30T00:00:00Z", DocCount: 1},
		specs,
		compiler.Tables{},
		compiler.Taxonomy{
			Components:     map[string][]string{"aussenwand": {"aussenwand", "fassade"}},
			CostCategories: map[string][]string{"material": {"daemmstoff"}},
		},
		"2026-08-30T00:00:00Z",
	)

	require.NoError(t, bundle.SaveBundle(path, input))

	loaded, err := bundle.LoadBundle(path)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30T00:00:00Z", loaded.Version)
	assert.Equal(t, 1, loaded.Meta.DocCount)
	require.Contains(t, loaded.Measures, "envelope_aussenwand")
	assert.Equal(t, []string{"aussenwand", "fassade"}, loaded.Taxonomy.Components["aussenwand"])
}

func TestLoadBundle_MissingFileFails(t *testing.T) {
	_, err := bundle.LoadBundle(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadOfferFacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case", "facts.yaml")
	report := rules.EvaluationReport{CaseID: "case-rt", RulesetVersion: "active"}
	require.NoError(t, bundle.SaveEvaluationReport(path, report))

	// any YAML mapping loads as the generic facts shape
	facts, err := bundle.LoadOfferFacts(path)
	require.NoError(t, err)
	assert.Equal(t, "case-rt", facts["case_id"])
}
