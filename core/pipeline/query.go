package pipeline

import (
	"strings"

	"github.com/siherrmann/trialmatch/model"
)

// BuildTrialDescription renders a trial record into the text that gets
// embedded into the similarity index. Field order is fixed so that the same
// record always produces the same text, and therefore the same embedding.
func BuildTrialDescription(record *model.TrialRecord) string {
	var parts []string

	if record.Title != "" {
		parts = append(parts, record.Title)
	}
	if record.Summary != "" {
		parts = append(parts, record.Summary)
	}
	if len(record.Conditions) > 0 {
		parts = append(parts, "Conditions: "+strings.Join(record.Conditions, ", "))
	}
	if len(record.Interventions) > 0 {
		names := make([]string, 0, len(record.Interventions))
		for _, intervention := range record.Interventions {
			names = append(names, intervention.Name)
		}
		parts = append(parts, "Interventions: "+strings.Join(names, ", "))
	}

	return strings.Join(parts, "\n")
}

// BuildPatientQuery renders a patient profile into the query text used for
// similarity search. Field order is fixed for the same reason as
// BuildTrialDescription: identical profiles must embed identically.
func BuildPatientQuery(patient *model.PatientProfile) string {
	var parts []string

	if len(patient.ActiveConditions) > 0 {
		parts = append(parts, "Conditions: "+strings.Join(patient.ActiveConditions, ", "))
	}
	if len(patient.CurrentMedications) > 0 {
		parts = append(parts, "Medications: "+strings.Join(patient.CurrentMedications, ", "))
	}
	if patient.FreeTextSummary != "" {
		parts = append(parts, patient.FreeTextSummary)
	}

	return strings.Join(parts, "\n")
}
