package pipeline

import (
	"testing"

	"github.com/siherrmann/trialmatch/model"
	"github.com/stretchr/testify/assert"
)

func TestBuildTrialDescription(t *testing.T) {
	t.Run("Full record renders all sections in fixed order", func(t *testing.T) {
		record := &model.TrialRecord{
			TrialID:    "NCT00000001",
			Title:      "Tamoxifen in early breast cancer",
			Summary:    "Adjuvant endocrine therapy study.",
			Conditions: []string{"Breast Cancer", "HR+ Tumors"},
			Interventions: []model.Intervention{
				{Type: "DRUG", Name: "Tamoxifen"},
				{Type: "DRUG", Name: "Placebo"},
			},
		}

		description := BuildTrialDescription(record)
		expected := "Tamoxifen in early breast cancer\n" +
			"Adjuvant endocrine therapy study.\n" +
			"Conditions: Breast Cancer, HR+ Tumors\n" +
			"Interventions: Tamoxifen, Placebo"
		assert.Equal(t, expected, description)
	})

	t.Run("Empty fields are omitted without blank lines", func(t *testing.T) {
		record := &model.TrialRecord{
			TrialID:    "NCT00000002",
			Title:      "Minimal trial",
			Conditions: []string{"Hypertension"},
		}

		description := BuildTrialDescription(record)
		assert.Equal(t, "Minimal trial\nConditions: Hypertension", description)
	})

	t.Run("Same record always produces the same text", func(t *testing.T) {
		record := &model.TrialRecord{
			TrialID:    "NCT00000003",
			Title:      "Deterministic trial",
			Summary:    "A summary.",
			Conditions: []string{"Asthma"},
		}

		assert.Equal(t, BuildTrialDescription(record), BuildTrialDescription(record),
			"Repeated rendering must be byte-identical")
	})
}

func TestBuildPatientQuery(t *testing.T) {
	t.Run("Full profile renders all sections in fixed order", func(t *testing.T) {
		patient := &model.PatientProfile{
			PatientID:          "patient-1",
			ActiveConditions:   []string{"Type 2 Diabetes", "Hypertension"},
			CurrentMedications: []string{"Metformin", "Lisinopril"},
			FreeTextSummary:    "56 year old with poorly controlled glucose.",
		}

		query := BuildPatientQuery(patient)
		expected := "Conditions: Type 2 Diabetes, Hypertension\n" +
			"Medications: Metformin, Lisinopril\n" +
			"56 year old with poorly controlled glucose."
		assert.Equal(t, expected, query)
	})

	t.Run("Empty fields are omitted", func(t *testing.T) {
		patient := &model.PatientProfile{
			PatientID:        "patient-2",
			ActiveConditions: []string{"Asthma"},
		}

		assert.Equal(t, "Conditions: Asthma", BuildPatientQuery(patient))
	})

	t.Run("Same profile always produces the same text", func(t *testing.T) {
		patient := &model.PatientProfile{
			PatientID:          "patient-3",
			ActiveConditions:   []string{"Breast Cancer"},
			CurrentMedications: []string{"Tamoxifen"},
		}

		assert.Equal(t, BuildPatientQuery(patient), BuildPatientQuery(patient),
			"Repeated rendering must be byte-identical")
	})
}

func TestPipeline(t *testing.T) {
	t.Run("EmbedTrial and EmbedPatient use the text builders", func(t *testing.T) {
		var embeddedTexts []string
		pipeline := NewPipeline(func(text string) ([]float32, error) {
			embeddedTexts = append(embeddedTexts, text)
			return []float32{1, 0, 0}, nil
		})

		record := &model.TrialRecord{TrialID: "NCT00000001", Title: "A trial"}
		patient := &model.PatientProfile{PatientID: "patient-1", FreeTextSummary: "A patient."}

		_, err := pipeline.EmbedTrial(record)
		assert.NoError(t, err)

		_, err = pipeline.EmbedPatient(patient)
		assert.NoError(t, err)

		assert.Equal(t, []string{BuildTrialDescription(record), BuildPatientQuery(patient)}, embeddedTexts)
	})
}
