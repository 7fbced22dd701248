package model

import "errors"

var (
	// ErrMissingPatientID is returned when a profile has no patient identifier.
	ErrMissingPatientID = errors.New("patient profile is missing patient ID")
	// ErrMissingPatientAge is returned when a profile has no resolved age.
	ErrMissingPatientAge = errors.New("patient profile is missing age")
)

// PatientProfile holds the structured clinical facts extracted from a
// patient's record by an external extractor. The matching engine consumes
// it read-only; one profile is built per patient per run.
//
// AgeMonths uses the same unit as TrialRecord age bounds.
type PatientProfile struct {
	PatientID          string   `json:"patient_id"`
	AgeMonths          *int     `json:"age_months,omitempty"`
	Sex                Sex      `json:"sex"`
	ActiveConditions   []string `json:"active_conditions,omitempty"`
	CurrentMedications []string `json:"current_medications,omitempty"`
	FreeTextSummary    string   `json:"free_text_summary,omitempty"`
}

// Validate checks the mandatory fields the pipeline cannot run without.
// Missing conditions or medications are fine; a missing ID or age is an
// input error that fails the patient's pipeline.
func (p *PatientProfile) Validate() error {
	if p.PatientID == "" {
		return ErrMissingPatientID
	}
	if p.AgeMonths == nil {
		return ErrMissingPatientAge
	}
	return nil
}
