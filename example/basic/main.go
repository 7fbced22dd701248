package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/trialmatch"
	"github.com/siherrmann/trialmatch/core/llm"
	"github.com/siherrmann/trialmatch/helper"
	"github.com/siherrmann/trialmatch/model"
)

func intPtr(v int) *int {
	return &v
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	m, err := trialmatch.NewMatcher(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create matcher: %v", err)
	}
	defer m.Close()

	// Set up the default embedding pipeline (all-MiniLM-L6-v2)
	if err := m.UseDefaultEmbedder(); err != nil {
		log.Fatalf("Failed to set up embedder: %v", err)
	}

	// Set up the evaluator model for eligibility adjudication
	evaluator, err := llm.NewClient(llm.DefaultConfig("openai", os.Getenv("OPENAI_API_KEY"), "gpt-4o-mini"))
	if err != nil {
		log.Fatalf("Failed to create evaluator: %v", err)
	}
	m.SetEvaluator(evaluator)

	// Ingest a small trial corpus
	trials := []*model.TrialRecord{
		{
			TrialID:          "NCT00000001",
			Title:            "Tamoxifen in early hormone receptor positive breast cancer",
			Summary:          "Randomized study of adjuvant endocrine therapy after surgery.",
			Conditions:       []string{"Breast Cancer"},
			Interventions:    []model.Intervention{{Type: "DRUG", Name: "Tamoxifen"}},
			Phase:            "PHASE3",
			Sex:              model.SexFemale,
			MinimumAgeMonths: intPtr(model.YearsToMonths(18)),
			MaximumAgeMonths: intPtr(model.YearsToMonths(75)),
			EligibilityCriteriaText: "Inclusion Criteria:\n" +
				"- Histologically confirmed invasive breast cancer\n" +
				"- Hormone receptor positive tumor\n" +
				"Exclusion Criteria:\n" +
				"- Prior systemic chemotherapy\n" +
				"- Pregnancy or breastfeeding",
		},
		{
			TrialID:          "NCT00000002",
			Title:            "Metformin dose escalation in type 2 diabetes",
			Summary:          "Open label study of metformin in adults with poorly controlled glucose.",
			Conditions:       []string{"Type 2 Diabetes"},
			Interventions:    []model.Intervention{{Type: "DRUG", Name: "Metformin"}},
			Sex:              model.SexAll,
			MinimumAgeMonths: intPtr(model.YearsToMonths(18)),
			EligibilityCriteriaText: "Inclusion Criteria:\n" +
				"- Diagnosed type 2 diabetes\n" +
				"- HbA1c above 7.5%\n" +
				"Exclusion Criteria:\n" +
				"- Renal impairment",
		},
		{
			TrialID:          "NCT00000003",
			Title:            "Inhaled corticosteroids in pediatric asthma",
			Summary:          "Dose comparison study in children with persistent asthma.",
			Conditions:       []string{"Asthma"},
			Sex:              model.SexAll,
			MaximumAgeMonths: intPtr(model.YearsToMonths(17)),
			EligibilityCriteriaText: "Inclusion Criteria:\n" +
				"- Persistent asthma diagnosis\n" +
				"Exclusion Criteria:\n" +
				"- Oral steroid use in the last month",
		},
	}

	fmt.Println("=== Ingesting Trials ===")
	indexed, err := m.IngestTrials(trials)
	if err != nil {
		log.Fatalf("Failed to ingest trials: %v", err)
	}
	fmt.Printf("Indexed %d trials\n", indexed)

	// Match a patient against the corpus
	patient := &model.PatientProfile{
		PatientID:          "patient-1",
		AgeMonths:          intPtr(model.YearsToMonths(45)),
		Sex:                model.SexFemale,
		ActiveConditions:   []string{"Breast Cancer"},
		CurrentMedications: []string{"Anastrozole"},
		FreeTextSummary:    "45 year old woman with newly diagnosed hormone receptor positive breast cancer, no prior chemotherapy.",
	}

	fmt.Println("\n=== Matching Patient ===")
	result, err := m.MatchPatient(context.Background(), patient)
	if err != nil {
		log.Fatalf("Matching failed: %v", err)
	}

	fmt.Printf("Run %s for %s finished with status %s\n", result.RunID, result.PatientID, result.Status)
	for i, match := range result.Matches {
		fmt.Printf("\n%d. %s (%s, similarity %.3f)\n", i+1, match.Trial.Title, match.Trial.TrialID, match.Candidate.SimilarityScore)
		if match.Verdict != nil {
			fmt.Printf("   Verdict: %s\n", match.Verdict.Decision)
			fmt.Printf("   Rationale: %s\n", match.Verdict.Rationale)
		}
	}
}
