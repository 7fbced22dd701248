package matching

import (
	"github.com/siherrmann/trialmatch/database"
	"github.com/siherrmann/trialmatch/helper"
	"github.com/siherrmann/trialmatch/model"
)

// CandidateFilter is the structured demographic stage. It reduces the trial
// corpus to the IDs a patient could demographically qualify for, using only
// indexed columns; no free-text criteria are read here.
type CandidateFilter struct {
	trials database.TrialsDBHandlerFunctions
}

// NewCandidateFilter creates a new demographic candidate filter
func NewCandidateFilter(trials database.TrialsDBHandlerFunctions) *CandidateFilter {
	return &CandidateFilter{
		trials: trials,
	}
}

// Filter returns the IDs of trials whose sex and age bounds are compatible
// with the patient, capped at limit and ordered by trial ID. Trials with
// unbounded age limits always pass the age predicate.
func (f *CandidateFilter) Filter(patient *model.PatientProfile, limit int) ([]string, error) {
	trialIDs, err := f.trials.SelectCandidateTrialIDs(patient.AgeMonths, patient.Sex, limit)
	if err != nil {
		return nil, helper.NewError("select candidate trial ids", err)
	}

	return trialIDs, nil
}
