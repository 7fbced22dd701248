package model

import (
	"fmt"
	"strings"
)

// Decision is the three-way outcome of an eligibility adjudication.
type Decision string

const (
	DecisionEligible   Decision = "ELIGIBLE"
	DecisionIneligible Decision = "INELIGIBLE"
	DecisionUncertain  Decision = "UNCERTAIN"
)

// ParseDecision validates a raw decision string against the closed enum.
// The evaluator's free text is never trusted as a verdict without passing
// this check.
func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToUpper(strings.TrimSpace(s))) {
	case DecisionEligible:
		return DecisionEligible, nil
	case DecisionIneligible:
		return DecisionIneligible, nil
	case DecisionUncertain:
		return DecisionUncertain, nil
	default:
		return "", fmt.Errorf("unknown eligibility decision %q", s)
	}
}

// EligibilityVerdict is the adjudication result for one (patient, trial)
// pair. Immutable once created.
type EligibilityVerdict struct {
	TrialID              string   `json:"trial_id"`
	Decision             Decision `json:"decision"`
	Rationale            string   `json:"rationale,omitempty"`
	CriteriaSnippetsUsed []string `json:"criteria_snippets_used,omitempty"`
}
