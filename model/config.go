package model

import "time"

// MatchConfig represents configuration for one matching run
type MatchConfig struct {
	// Ranking parameters
	TopK           int `json:"top_k"`           // Trials to rank and adjudicate per patient
	CandidateLimit int `json:"candidate_limit"` // Cap on the demographic candidate set

	// Adjudication parameters
	AdjudicationConcurrency int           `json:"adjudication_concurrency"` // Parallel evaluator calls per patient
	MaxAdjudicationRetries  int           `json:"max_adjudication_retries"` // Retry ceiling per (patient, trial) pair
	InitialBackoff          time.Duration `json:"initial_backoff"`          // First retry delay, doubled per attempt

	// Batch parameters
	PatientConcurrency int `json:"patient_concurrency"` // Parallel patient pipelines in a batch run
}

// DefaultMatchConfig returns a sensible default configuration.
// TopK and CandidateLimit follow the registry-scale defaults the corpus
// was tuned for (adjudicate the top 20, filter at most 1000 candidates).
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		TopK:                    20,
		CandidateLimit:          1000,
		AdjudicationConcurrency: 4,
		MaxAdjudicationRetries:  3,
		InitialBackoff:          500 * time.Millisecond,
		PatientConcurrency:      2,
	}
}
