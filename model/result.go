package model

import "github.com/google/uuid"

// MatchCandidate is one entry of a ranked candidate list, produced
// transiently by the ranker.
type MatchCandidate struct {
	TrialID         string  `json:"trial_id"`
	SimilarityScore float64 `json:"similarity_score"`
}

// MatchStatus is the terminal state of a patient's pipeline run.
type MatchStatus string

const (
	MatchStatusDone   MatchStatus = "DONE"
	MatchStatusFailed MatchStatus = "FAILED"
)

// TrialMatch pairs a ranked trial with its adjudication verdict.
type TrialMatch struct {
	Trial     *TrialRecord        `json:"trial"`
	Candidate MatchCandidate      `json:"candidate"`
	Verdict   *EligibilityVerdict `json:"verdict,omitempty"`
}

// PatientMatchResult is the aggregate output of one pipeline run for one
// patient. A re-run produces a fresh result with a new RunID; results are
// never mutated after the run completes.
//
// Matches are ordered by the ranker's similarity score at ranking time;
// adjudication verdicts do not reorder them. A FAILED result carries a
// FailureReason and no matches; a DONE result may legitimately have an
// empty match list.
type PatientMatchResult struct {
	RunID         uuid.UUID    `json:"run_id"`
	PatientID     string       `json:"patient_id"`
	Status        MatchStatus  `json:"status"`
	FailureReason string       `json:"failure_reason,omitempty"`
	Matches       []TrialMatch `json:"matches"`
}
