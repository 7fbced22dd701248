package model

import (
	"strings"
	"time"
)

// Sex is the demographic eligibility of a trial, using the registry convention.
// Values outside the three known constants are preserved on the record but
// never satisfy the demographic predicate.
type Sex string

const (
	SexAll    Sex = "ALL"
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

// NormalizeSex maps common source spellings to the registry convention.
// Unknown values are returned upper-cased and unmodified otherwise.
func NormalizeSex(s string) Sex {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ALL", "ANY", "BOTH", "":
		return SexAll
	case "M", "MALE":
		return SexMale
	case "F", "FEMALE":
		return SexFemale
	default:
		return Sex(strings.ToUpper(strings.TrimSpace(s)))
	}
}

// Intervention is a single trial intervention, e.g. {Type: "DRUG", Name: "Tamoxifen"}.
type Intervention struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// TrialRecord represents one actively recruiting clinical trial.
// Records are immutable once ingested; re-ingesting the same TrialID
// replaces the stored record.
//
// Age bounds are normalized to months; nil means unbounded.
type TrialRecord struct {
	ID                      int64          `json:"id"`
	TrialID                 string         `json:"trial_id"`
	Title                   string         `json:"title"`
	Summary                 string         `json:"summary,omitempty"`
	Conditions              []string       `json:"conditions,omitempty"`
	Interventions           []Intervention `json:"interventions,omitempty"`
	Phase                   string         `json:"phase,omitempty"`
	EnrollmentCount         *int           `json:"enrollment_count,omitempty"`
	EligibilityCriteriaText string         `json:"eligibility_criteria_text,omitempty"`
	Sex                     Sex            `json:"sex"`
	MinimumAgeMonths        *int           `json:"minimum_age_months,omitempty"`
	MaximumAgeMonths        *int           `json:"maximum_age_months,omitempty"`
	HealthyVolunteers       bool           `json:"healthy_volunteers"`
	Metadata                Metadata       `json:"metadata,omitempty"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

// YearsToMonths converts an age in whole years to months.
func YearsToMonths(years int) int {
	return years * 12
}

// HasValidAgeRange reports whether the record's age bounds are consistent.
// An inverted range (minimum above maximum) is a data integrity problem in
// the source registry; such records stay in the corpus but their bounds are
// dropped from structured filtering.
func (t *TrialRecord) HasValidAgeRange() bool {
	if t.MinimumAgeMonths == nil || t.MaximumAgeMonths == nil {
		return true
	}
	return *t.MinimumAgeMonths <= *t.MaximumAgeMonths
}
