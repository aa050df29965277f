// SPDX-License-Identifier: Apache-2.0

// Package ruleset orchestrates the two long paths of the checker: building
// a compiled ruleset from source documents, and evaluating an offer-facts
// case against the active ruleset. It owns the workspace layout on disk;
// the pure packages underneath it never touch the filesystem.
package ruleset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dennisfleischmann/fs-bafa-check/internal/bundle"
	"github.com/dennisfleischmann/fs-bafa-check/internal/compiler"
	"github.com/dennisfleischmann/fs-bafa-check/internal/config"
	"github.com/dennisfleischmann/fs-bafa-check/internal/engine"
	"github.com/dennisfleischmann/fs-bafa-check/internal/guards"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
	"github.com/dennisfleischmann/fs-bafa-check/internal/snippets"
	"github.com/dennisfleischmann/fs-bafa-check/internal/taxonomy"
	"github.com/dennisfleischmann/fs-bafa-check/internal/validate"
)

// Workspace resolves the on-disk layout relative to a base directory.
type Workspace struct {
	Base string
}

func (w Workspace) RequirementsPath() string { return filepath.Join(w.Base, "rules", "requirements.yaml") }
func (w Workspace) MeasuresDir() string      { return filepath.Join(w.Base, "rules", "measures") }
func (w Workspace) CoveragePath() string {
	return filepath.Join(w.Base, "rules", "coverage_manifest.yaml")
}
func (w Workspace) BundlePath() string {
	return filepath.Join(w.Base, "rules", "bundles", "ruleset.bundle.yaml")
}
func (w Workspace) ActiveBundlePath() string {
	return filepath.Join(w.Base, "rules", "bundles", "ruleset.active.yaml")
}
func (w Workspace) BuildReportPath() string {
	return filepath.Join(w.Base, "rules", "build_report.yaml")
}
func (w Workspace) CasesDir() string { return filepath.Join(w.Base, "data", "cases") }

// requiredComponents and requiredMeasures are the activation floor: a
// ruleset missing any of these never goes active.
var (
	requiredComponents = []string{"aussenwand", "dach", "fenster", "kellerdecke"}
	requiredMeasures   = []string{
		"envelope_aussenwand",
		"envelope_dach",
		"envelope_fenster",
		"envelope_kellerdecke",
	}
)

// Init creates the workspace directories and seeds bootstrap measure specs
// for every configured default threshold. Existing spec files are kept.
func Init(ws Workspace, cfg config.Config, log *zap.Logger) error {
	for _, dir := range []string{ws.MeasuresDir(), filepath.Dir(ws.BundlePath()), ws.CasesDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating workspace dir %s: %w", dir, err)
		}
	}

	existing, err := bundle.LoadSpecs(ws.MeasuresDir())
	if err != nil {
		return err
	}
	seeded := 0
	for measureID, threshold := range cfg.ThresholdDefaults {
		if _, ok := existing[measureID]; ok {
			continue
		}
		existing[measureID] = compiler.BootstrapSpec(measureID, threshold)
		seeded++
	}
	if seeded > 0 {
		if err := bundle.SaveSpecs(ws.MeasuresDir(), existing); err != nil {
			return err
		}
	}
	log.Info("workspace initialized",
		zap.String("base", ws.Base),
		zap.Int("bootstrap_specs", seeded))
	return nil
}

// SourceInput is one regulatory document handed to a build: already
// extracted text (or a pre-annotated snippet file) plus the metadata the
// compiler needs to scope its requirements. Content wins over Path when
// both are set.
type SourceInput struct {
	DocID    string
	Path     string
	Content  []byte
	Format   string
	Priority int
}

// measureForDoc assigns the target measure by document ID. Documents that
// name no known component compile into the wall measure, which is the
// Infoblatt's leading chapter.
func measureForDoc(docID string) (component, measureID string) {
	switch {
	case strings.Contains(docID, "fenster"):
		return "fenster", "envelope_fenster"
	case strings.Contains(docID, "dach"):
		return "dach", "envelope_dach"
	case strings.Contains(docID, "kellerdecke"):
		return "kellerdecke", "envelope_kellerdecke"
	default:
		return "aussenwand", "envelope_aussenwand"
	}
}

// Build compiles the provided source documents into a versioned ruleset:
// snippet detection, requirement synthesis, spec compilation with the
// recompilation merge policy, guard activation, and bundle emission. The
// build report is always written; the active bundle only when every guard
// passes.
func Build(ctx context.Context, ws Workspace, sources []SourceInput, cfg config.Config, log *zap.Logger) (rules.BuildReport, error) {
	if err := Init(ws, cfg, log); err != nil {
		return rules.BuildReport{}, err
	}

	pipeline := snippets.DefaultPipeline()
	var requirements []rules.Requirement
	for _, src := range sources {
		content := src.Content
		if content == nil {
			var err error
			content, err = os.ReadFile(src.Path)
			if err != nil {
				return rules.BuildReport{}, fmt.Errorf("reading source document %s: %w", src.Path, err)
			}
		}
		found, err := pipeline.RunWithMeta(ctx, snippets.SourceDocument{
			Content: content,
			Format:  src.Format,
			ID:      src.DocID,
		})
		if err != nil {
			return rules.BuildReport{}, err
		}
		component, measureID := measureForDoc(src.DocID)
		records := compiler.SnippetsToRequirements(found.Snippets, measureID, component, src.Priority)
		log.Info("document compiled",
			zap.String("doc_id", src.DocID),
			zap.String("parser", found.ParserUsed),
			zap.Int("snippets", len(found.Snippets)),
			zap.Int("requirements", len(records)))
		requirements = append(requirements, records...)
	}

	if err := bundle.SaveRequirements(ws.RequirementsPath(), requirements); err != nil {
		return rules.BuildReport{}, err
	}

	version := time.Now().UTC().Format(time.RFC3339)
	compiled := compiler.CompileMeasureSpecs(requirements, version)
	previous, err := bundle.LoadSpecs(ws.MeasuresDir())
	if err != nil {
		return rules.BuildReport{}, err
	}
	measures := compiler.MergeSpecs(compiled, previous, cfg.ThresholdDefaults)

	manifest, err := bundle.LoadCoverageManifest(ws.CoveragePath())
	if err != nil {
		return rules.BuildReport{}, err
	}

	guardResults := []rules.GuardResult{
		guards.EvidenceBinding(requirements),
		guards.ConflictGuard(requirements),
		guards.Coverage(measures, requiredComponents),
		guards.ThresholdGuard(measures, requiredMeasures),
	}
	report := rules.BuildReport{RulesetVersion: version}
	if manifest != nil {
		guardResults = append(guardResults,
			guards.CoverageManifestGuard(requirements, *manifest, manifest.SourceDocID))
		coverage := guards.CoverageManifestReport(requirements, *manifest, manifest.SourceDocID)
		report.Coverage = map[string]any{
			"source_doc_id":    manifest.SourceDocID,
			"covered_sections": coverage.CoveredSections,
			"missing_sections": coverage.MissingSections,
		}
	}
	activation := guards.Activation(guardResults...)
	report.ValidationPassed = activation.OK
	report.Errors = activation.Errors
	report.Warnings = activation.Warnings

	if err := bundle.SaveSpecs(ws.MeasuresDir(), measures); err != nil {
		return rules.BuildReport{}, err
	}
	compiledBundle := compiler.CompileBundle(
		compiler.BundleMeta{ManifestGeneratedAt: version, DocCount: len(sources)},
		measures,
		compiler.CompileTables(requirements),
		compiler.Taxonomy{
			Components:     taxonomy.Components(),
			CostCategories: taxonomy.CostCategories(),
		},
		version,
	)
	if err := bundle.SaveBundle(ws.BundlePath(), compiledBundle); err != nil {
		return rules.BuildReport{}, err
	}
	if err := bundle.SaveBuildReport(ws.BuildReportPath(), report); err != nil {
		return rules.BuildReport{}, err
	}

	if activation.OK {
		if err := bundle.SaveBundle(ws.ActiveBundlePath(), compiledBundle); err != nil {
			return rules.BuildReport{}, err
		}
		log.Info("ruleset activated", zap.String("version", version))
	} else {
		log.Warn("ruleset build failed activation",
			zap.String("version", version),
			zap.Strings("errors", activation.Errors))
	}

	return report, nil
}

// EvaluateOutcome bundles everything one evaluation run produces.
type EvaluateOutcome struct {
	Report     rules.EvaluationReport
	Escalation *engine.EscalationTicket
}

// Evaluate loads the compiled specs, validates the offer facts, runs every
// measure through the engine, and applies the escalation policy. Shape
// validation failure is a hard error: nothing is evaluated.
func Evaluate(ws Workspace, facts map[string]any, qualityFlags []string, cfg config.Config, log *zap.Logger) (EvaluateOutcome, error) {
	validator, err := validate.New()
	if err != nil {
		return EvaluateOutcome{}, err
	}
	if err := validator.OfferFacts(facts); err != nil {
		return EvaluateOutcome{}, err
	}

	specs, err := bundle.LoadSpecs(ws.MeasuresDir())
	if err != nil {
		return EvaluateOutcome{}, err
	}

	// the report cites the active bundle's version; a workspace that never
	// had a successful build evaluates against the bootstrap specs
	version := "bootstrap"
	if active, err := bundle.LoadBundle(ws.ActiveBundlePath()); err == nil {
		version = active.Version
	}

	opts := engine.Options{ThresholdDefaults: componentDefaults(cfg.ThresholdDefaults)}
	report := engine.EvaluateCase(facts, specs, version, opts)
	log.Info("case evaluated",
		zap.String("case_id", report.CaseID),
		zap.String("report_id", report.ReportID),
		zap.Int("measures", len(report.Results)))

	outcome := EvaluateOutcome{Report: report}
	if engine.ShouldEscalate(report, qualityFlags, cfg.EscalationThreshold) {
		ticket := engine.BuildEscalationTicket(report, qualityFlags)
		outcome.Escalation = &ticket
		log.Warn("case escalated",
			zap.String("case_id", report.CaseID),
			zap.String("severity", ticket.Severity))
	}

	caseDir := filepath.Join(ws.CasesDir(), report.CaseID)
	if err := bundle.SaveEvaluationReport(filepath.Join(caseDir, "evaluation.yaml"), report); err != nil {
		return EvaluateOutcome{}, err
	}
	return outcome, nil
}

// componentDefaults rekeys the configured measure thresholds by component
// name, which is how the derived-value calculator looks them up.
func componentDefaults(byMeasure map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(byMeasure))
	for measureID, value := range byMeasure {
		component := measureID
		if idx := strings.Index(measureID, "_"); idx >= 0 {
			component = measureID[idx+1:]
		}
		out[component] = value
	}
	return out
}
