// SPDX-License-Identifier: Apache-2.0

// Package guards validates a requirement set and its compiled specs before
// activation. Each guard runs independently and never short-circuits the
// others; the activation guard is the single union-reduce gate. Errors
// block activation, warnings are surfaced but never block.
package guards

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dennisfleischmann/fs-bafa-check/internal/compiler"
	"github.com/dennisfleischmann/fs-bafa-check/internal/normalize"
	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

func ok() rules.GuardResult {
	return rules.GuardResult{OK: true}
}

func fromLists(errors, warnings []string) rules.GuardResult {
	return rules.GuardResult{OK: len(errors) == 0, Errors: errors, Warnings: warnings}
}

// EvidenceBinding checks that every numeric threshold is textually attested:
// the value must parse, must carry evidence, and at least one quote (with
// comma decimals normalized) must contain the value's canonical numeral. A
// threshold whose value is absent entirely is a warning, not an error.
func EvidenceBinding(requirements []rules.Requirement) rules.GuardResult {
	var errors, warnings []string
	for _, req := range requirements {
		if req.ReqType != rules.ReqTechThreshold {
			continue
		}
		reqID := req.ReqID
		if reqID == "" {
			reqID = "unknown"
		}
		tr, hasPayload := req.ThresholdPayload()
		if !hasPayload || tr.Value == nil {
			warnings = append(warnings, fmt.Sprintf("%s: threshold without numeric value", reqID))
			continue
		}
		numeric, parsed := normalize.ParseFloat(tr.Value)
		if !parsed {
			errors = append(errors, fmt.Sprintf("%s: threshold value is not numeric", reqID))
			continue
		}
		if len(req.Evidence) == 0 {
			errors = append(errors, fmt.Sprintf("%s: missing evidence", reqID))
			continue
		}
		token := normalize.CanonicalToken(numeric)
		found := false
		for _, ev := range req.Evidence {
			if strings.Contains(normalize.Decimal(ev.Quote), token) {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, fmt.Sprintf("%s: threshold token %s missing in evidence quote", reqID, token))
		}
	}
	return fromLists(errors, warnings)
}

// Coverage checks that the compiled specs cover every required component.
func Coverage(measures map[string]rules.MeasureSpec, requiredComponents []string) rules.GuardResult {
	present := make(map[string]bool, len(measures))
	for _, spec := range measures {
		if spec.Scope.Component != "" {
			present[spec.Scope.Component] = true
		}
	}
	var missing []string
	for _, component := range requiredComponents {
		if !present[component] {
			missing = append(missing, component)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fromLists([]string{"missing coverage components: " + strings.Join(missing, ", ")}, nil)
	}
	return ok()
}

// ConflictGuard turns every detected requirement conflict into one error
// line naming both requirement ids and their differing values.
func ConflictGuard(requirements []rules.Requirement) rules.GuardResult {
	conflicts := compiler.DetectConflicts(requirements)
	if len(conflicts) == 0 {
		return ok()
	}
	errors := make([]string, 0, len(conflicts))
	for _, conflict := range conflicts {
		oldTR, _ := conflict.Existing.ThresholdPayload()
		newTR, _ := conflict.Incoming.ThresholdPayload()
		errors = append(errors, fmt.Sprintf(
			"conflict: %s value=%v vs %s value=%v",
			conflict.Existing.ReqID, oldTR.Value,
			conflict.Incoming.ReqID, newTR.Value,
		))
	}
	return fromLists(errors, nil)
}

// CoverageReport compares requirement section scopes against a manifest.
type CoverageReport struct {
	SourceDocID      string   `yaml:"source_doc_id" json:"source_doc_id"`
	RequiredSections int      `yaml:"required_sections" json:"required_sections"`
	CoveredSections  []string `yaml:"covered_sections" json:"covered_sections"`
	MissingSections  []string `yaml:"missing_sections" json:"missing_sections"`
}

// CoverageManifestReport lists which required sections of the source
// document have at least one representing requirement.
func CoverageManifestReport(requirements []rules.Requirement, manifest rules.CoverageManifest, sourceDocID string) CoverageReport {
	covered := make(map[string]bool)
	for _, req := range requirements {
		if req.Scope.SourceDocID == sourceDocID && req.Scope.SectionID != "" {
			covered[req.Scope.SectionID] = true
		}
	}

	report := CoverageReport{SourceDocID: sourceDocID}
	for _, section := range manifest.Sections {
		if !section.Required {
			continue
		}
		report.RequiredSections++
		if covered[section.SectionID] {
			report.CoveredSections = append(report.CoveredSections, section.SectionID)
		} else {
			report.MissingSections = append(report.MissingSections, section.SectionID)
		}
	}
	return report
}

// CoverageManifestGuard fails when any required section has zero
// representing requirements.
func CoverageManifestGuard(requirements []rules.Requirement, manifest rules.CoverageManifest, sourceDocID string) rules.GuardResult {
	report := CoverageManifestReport(requirements, manifest, sourceDocID)
	if len(report.MissingSections) == 0 {
		return ok()
	}
	return fromLists([]string{
		"coverage_manifest_missing_sections: " + strings.Join(report.MissingSections, ", "),
	}, nil)
}

// ThresholdGuard checks that every required measure compiled to at least
// one numeric threshold condition.
func ThresholdGuard(measures map[string]rules.MeasureSpec, requiredMeasureIDs []string) rules.GuardResult {
	var errors []string
	for _, measureID := range requiredMeasureIDs {
		spec, present := measures[measureID]
		if !present || len(spec.TechnicalRequirements.Thresholds) == 0 {
			errors = append(errors, "missing_thresholds:"+measureID)
		}
	}
	sort.Strings(errors)
	return fromLists(errors, nil)
}

// Activation union-reduces all guard results into the single activation
// decision: ok iff no guard produced any error. Error and warning lists
// are concatenated in guard order.
func Activation(results ...rules.GuardResult) rules.GuardResult {
	var errors, warnings []string
	for _, result := range results {
		errors = append(errors, result.Errors...)
		warnings = append(warnings, result.Warnings...)
	}
	return fromLists(errors, warnings)
}
