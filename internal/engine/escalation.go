// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"math"

	"github.com/dennisfleischmann/fs-bafa-check/internal/rules"
)

// DefaultEscalationThreshold is the risk score at which a case is handed
// to a human reviewer.
const DefaultEscalationThreshold = 0.30

// EscalationTicket is the handoff record for cases the engine cannot
// settle on its own.
type EscalationTicket struct {
	CaseID   string   `yaml:"case_id" json:"case_id"`
	Reasons  []string `yaml:"reasons" json:"reasons"`
	Severity string   `yaml:"severity" json:"severity"`
	Payload  struct {
		RiskScore  float64                `yaml:"risk_score" json:"risk_score"`
		Evaluation rules.EvaluationReport `yaml:"evaluation" json:"evaluation"`
	} `yaml:"payload" json:"payload"`
}

func hasFlag(flags []string, name string) bool {
	for _, f := range flags {
		if f == name {
			return true
		}
	}
	return false
}

// RiskScore aggregates per-measure outcomes and document quality flags
// into a score in [0, 1]. CLARIFY and ABORT dominate because they mean
// the case cannot be settled without a human or the applicant.
func RiskScore(report rules.EvaluationReport, qualityFlags []string) float64 {
	score := 0.0
	for _, result := range report.Results {
		switch result.Status {
		case rules.StatusClarify:
			score += 0.20
		case rules.StatusAbort:
			score += 0.40
		case rules.StatusFail:
			score += 0.10
		}
	}
	if hasFlag(qualityFlags, "ocr_required") {
		score += 0.15
	}
	if hasFlag(qualityFlags, "unknown_doc_type") {
		score += 0.20
	}
	return math.Min(1.0, math.Round(score*100)/100)
}

// ShouldEscalate reports whether the case's risk score reaches the
// escalation threshold. A non-positive threshold selects the default.
func ShouldEscalate(report rules.EvaluationReport, qualityFlags []string, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultEscalationThreshold
	}
	return RiskScore(report, qualityFlags) >= threshold
}

// BuildEscalationTicket assembles the reviewer-facing ticket: one reason
// line per unsettled measure plus one per quality flag.
func BuildEscalationTicket(report rules.EvaluationReport, qualityFlags []string) EscalationTicket {
	var reasons []string
	for _, result := range report.Results {
		if result.Status == rules.StatusClarify || result.Status == rules.StatusAbort {
			reasons = append(reasons, fmt.Sprintf("%s: %s", result.MeasureID, result.Reason))
		}
	}
	for _, flag := range qualityFlags {
		reasons = append(reasons, "quality:"+flag)
	}
	score := RiskScore(report, qualityFlags)
	severity := "medium"
	if score >= 0.5 {
		severity = "high"
	}
	ticket := EscalationTicket{
		CaseID:   report.CaseID,
		Reasons:  reasons,
		Severity: severity,
	}
	ticket.Payload.RiskScore = score
	ticket.Payload.Evaluation = report
	return ticket
}
