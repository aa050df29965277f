// SPDX-License-Identifier: Apache-2.0

// Package validate checks the shape of inbound offer facts and outbound
// evaluation reports against CUE schemas. Shape validation is a hard gate:
// a malformed document is rejected before any per-measure evaluation runs.
package validate

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

const offerFactsSchema = `
#OfferFacts: {
	case_id!: string & !=""
	building!: {...}
	applicant!: {...}
	offer!: {
		measures!: [...{...}]
		...
	}
	docs!: {...}
	...
}
`

const evaluationReportSchema = `
#EvaluationReport: {
	case_id!:         string & !=""
	report_id!:       string & !=""
	generated_at!:    string & !=""
	ruleset_version!: string
	results!: [...{
		measure_id!: string & !=""
		status!:     "PASS" | "FAIL" | "CLARIFY" | "ABORT"
		reason!:     string
		...
	}]
	...
}
`

// Validator holds compiled schemas. It is safe for concurrent use once
// built.
type Validator struct {
	ctx    *cue.Context
	offer  cue.Value
	report cue.Value
}

// New compiles the schemas. Compilation failure is a programming error
// and is returned rather than deferred to first use.
func New() (*Validator, error) {
	ctx := cuecontext.New()

	offer := ctx.CompileString(offerFactsSchema)
	if err := offer.Err(); err != nil {
		return nil, fmt.Errorf("compiling offer facts schema: %w", err)
	}
	report := ctx.CompileString(evaluationReportSchema)
	if err := report.Err(); err != nil {
		return nil, fmt.Errorf("compiling evaluation report schema: %w", err)
	}

	return &Validator{
		ctx:    ctx,
		offer:  offer.LookupPath(cue.ParsePath("#OfferFacts")),
		report: report.LookupPath(cue.ParsePath("#EvaluationReport")),
	}, nil
}

func (v *Validator) check(schema cue.Value, document any, label string) error {
	value := v.ctx.Encode(document)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding %s: %w", label, err)
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid %s: %w", label, err)
	}
	return nil
}

// OfferFacts validates a decoded offer-facts document. case_id, building,
// applicant, offer.measures, and docs must all be present; an absent
// section is rejected here, before any per-measure evaluation runs.
func (v *Validator) OfferFacts(facts map[string]any) error {
	return v.check(v.offer, facts, "offer facts")
}

// EvaluationReport validates an evaluation report before it is persisted
// or returned to a caller.
func (v *Validator) EvaluationReport(report any) error {
	return v.check(v.report, report, "evaluation report")
}
