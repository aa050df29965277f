// SPDX-License-Identifier: Apache-2.0

// Package bundle reads and writes the YAML artifacts of a ruleset build:
// the append-only requirement log, the per-measure spec files, the coverage
// manifest, the distribution bundle and the build report. All files round
// trip through goccy/go-yaml; the requirement log additionally carries the
// rule payload as a free-form map on the wire and decodes it into its
// typed form on load.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/dennisfleischmann/fs-bafa-check/internal/compiler"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// requirementWire mirrors rules.Requirement with the rule payload as a
// plain map, which is how it is stored on disk.
type requirementWire struct {
	ReqID             string           `yaml:"req_id"`
	ReqType           rules.ReqType    `yaml:"req_type"`
	Scope             rules.Scope      `yaml:"scope"`
	Rule              map[string]any   `yaml:"rule"`
	SeverityIfMissing rules.Severity   `yaml:"severity_if_missing"`
	Priority          int              `yaml:"priority"`
	Evidence          []rules.Evidence `yaml:"evidence"`
}

func fromWire(w requirementWire) rules.Requirement {
	return rules.Requirement{
		ReqID:             w.ReqID,
		ReqType:           w.ReqType,
		Scope:             w.Scope,
		Rule:              rules.PayloadForType(w.ReqType, w.Rule),
		SeverityIfMissing: w.SeverityIfMissing,
		Priority:          w.Priority,
		Evidence:          w.Evidence,
	}
}

func toWire(r rules.Requirement) requirementWire {
	return requirementWire{
		ReqID:             r.ReqID,
		ReqType:           r.ReqType,
		Scope:             r.Scope,
		Rule:              rules.PayloadToMap(r.Rule),
		SeverityIfMissing: r.SeverityIfMissing,
		Priority:          r.Priority,
		Evidence:          r.Evidence,
	}
}

// LoadRequirements reads a requirement log. A missing file is an empty
// log, not an error, so first builds need no bootstrap step.
func LoadRequirements(path string) ([]rules.Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading requirement log %s: %w", path, err)
	}
	var wires []requirementWire
	if err := yaml.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("decoding requirement log %s: %w", path, err)
	}
	requirements := make([]rules.Requirement, 0, len(wires))
	for _, w := range wires {
		requirements = append(requirements, fromWire(w))
	}
	return requirements, nil
}

// SaveRequirements writes the requirement log in input order.
func SaveRequirements(path string, requirements []rules.Requirement) error {
	wires := make([]requirementWire, 0, len(requirements))
	for _, r := range requirements {
		wires = append(wires, toWire(r))
	}
	return writeYAML(path, wires)
}

// LoadSpecs reads every *.yaml measure spec in dir, keyed by measure ID.
// A missing directory is an empty spec set.
func LoadSpecs(dir string) (map[string]rules.MeasureSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]rules.MeasureSpec{}, nil
		}
		return nil, fmt.Errorf("reading spec dir %s: %w", dir, err)
	}
	specs := make(map[string]rules.MeasureSpec)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading spec %s: %w", path, err)
		}
		var spec rules.MeasureSpec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("decoding spec %s: %w", path, err)
		}
		if spec.MeasureID == "" {
			return nil, fmt.Errorf("spec %s has no measure_id", path)
		}
		specs[spec.MeasureID] = spec
	}
	return specs, nil
}

// SaveSpecs writes one <measure_id>.yaml per spec into dir.
func SaveSpecs(dir string, specs map[string]rules.MeasureSpec) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating spec dir %s: %w", dir, err)
	}
	ids := make([]string, 0, len(specs))
	for id := range specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		path := filepath.Join(dir, id+".yaml")
		if err := writeYAML(path, specs[id]); err != nil {
			return err
		}
	}
	return nil
}

// LoadCoverageManifest reads the source-coverage manifest. A missing file
// returns nil, which disables the coverage-manifest guard.
func LoadCoverageManifest(path string) (*rules.CoverageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading coverage manifest %s: %w", path, err)
	}
	var manifest rules.CoverageManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding coverage manifest %s: %w", path, err)
	}
	return &manifest, nil
}

// SaveCoverageManifest writes the source-coverage manifest.
func SaveCoverageManifest(path string, manifest rules.CoverageManifest) error {
	return writeYAML(path, manifest)
}

// LoadBundle reads a compiled distribution bundle.
func LoadBundle(path string) (compiler.Bundle, error) {
	var b compiler.Bundle
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("reading bundle %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("decoding bundle %s: %w", path, err)
	}
	return b, nil
}

// SaveBundle writes the distribution bundle.
func SaveBundle(path string, b compiler.Bundle) error {
	return writeYAML(path, b)
}

// SaveBuildReport writes the build report next to the bundle artifacts.
func SaveBuildReport(path string, report rules.BuildReport) error {
	return writeYAML(path, report)
}

// LoadOfferFacts reads a decoded offer-facts document as a generic map,
// which is what the evaluation engine consumes.
func LoadOfferFacts(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading offer facts %s: %w", path, err)
	}
	var facts map[string]any
	if err := yaml.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("decoding offer facts %s: %w", path, err)
	}
	return facts, nil
}

// SaveEvaluationReport writes an evaluation report.
func SaveEvaluationReport(path string, report rules.EvaluationReport) error {
	return writeYAML(path, report)
}

func writeYAML(path string, value any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
