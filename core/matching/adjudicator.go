package matching

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/siherrmann/trialmatch/core/llm"
	"github.com/siherrmann/trialmatch/core/pipeline"
	"github.com/siherrmann/trialmatch/model"
)

// Adjudicator is the eligibility adjudication stage. It asks the evaluator
// model for a three-way verdict per (patient, trial) pair and never lets an
// evaluator failure escape: a pair whose calls exhaust the retry ceiling gets
// an UNCERTAIN verdict so the run still completes.
type Adjudicator struct {
	client         llm.Client
	maxRetries     int
	initialBackoff time.Duration
	logger         *slog.Logger
	// now is injectable for tests; the current date goes into the prompt so
	// the evaluator can reason about relative time spans in the criteria.
	now func() time.Time
}

// NewAdjudicator creates a new eligibility adjudicator
func NewAdjudicator(client llm.Client, maxRetries int, initialBackoff time.Duration, logger *slog.Logger) *Adjudicator {
	return &Adjudicator{
		client:         client,
		maxRetries:     maxRetries,
		initialBackoff: initialBackoff,
		logger:         logger,
		now:            time.Now,
	}
}

// verdictPayload is the JSON shape the evaluator is instructed to return.
type verdictPayload struct {
	Decision             string   `json:"decision"`
	Rationale            string   `json:"rationale"`
	CriteriaSnippetsUsed []string `json:"criteria_snippets_used"`
}

// Adjudicate returns the eligibility verdict for one (patient, trial) pair.
// Evaluator errors, unparseable responses and decisions outside the enum are
// retried with exponential backoff up to the retry ceiling; exhaustion
// produces an UNCERTAIN verdict with the failure as rationale.
func (a *Adjudicator) Adjudicate(ctx context.Context, patient *model.PatientProfile, trial *model.TrialRecord) *model.EligibilityVerdict {
	prompt := BuildAdjudicationPrompt(patient, trial, a.now())

	var verdict *model.EligibilityVerdict
	operation := func() error {
		response, err := a.client.Generate(ctx, prompt)
		if err != nil {
			return fmt.Errorf("evaluator call: %w", err)
		}

		payload, err := llm.ParseJSON[verdictPayload](response)
		if err != nil {
			return fmt.Errorf("parse evaluator response: %w", err)
		}

		decision, err := model.ParseDecision(payload.Decision)
		if err != nil {
			return err
		}

		verdict = &model.EligibilityVerdict{
			TrialID:              trial.TrialID,
			Decision:             decision,
			Rationale:            payload.Rationale,
			CriteriaSnippetsUsed: payload.CriteriaSnippetsUsed,
		}
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = a.initialBackoff

	err := backoff.Retry(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(a.maxRetries)), ctx),
	)
	if err != nil {
		a.logger.Warn(
			"Adjudication failed after retries, recording uncertain verdict",
			slog.String("patient_id", patient.PatientID),
			slog.String("trial_id", trial.TrialID),
			slog.String("error", err.Error()),
		)
		return &model.EligibilityVerdict{
			TrialID:   trial.TrialID,
			Decision:  model.DecisionUncertain,
			Rationale: fmt.Sprintf("adjudication did not complete: %v", err),
		}
	}

	return verdict
}

// BuildAdjudicationPrompt renders the evaluator prompt for one
// (patient, trial) pair. The eligibility criteria are split into their
// inclusion and exclusion sections so the evaluator sees them labeled the
// way the registry intended.
func BuildAdjudicationPrompt(patient *model.PatientProfile, trial *model.TrialRecord, now time.Time) string {
	var b strings.Builder

	b.WriteString("You are a clinical trial eligibility reviewer. Assess whether the patient ")
	b.WriteString("could be eligible for the trial based solely on the information below.\n\n")
	b.WriteString(fmt.Sprintf("Current date: %s\n\n", now.Format("2006-01-02")))

	b.WriteString("## Patient\n")
	if patient.AgeMonths != nil {
		b.WriteString(fmt.Sprintf("Age: %d years\n", *patient.AgeMonths/12))
	}
	if patient.Sex != "" {
		b.WriteString(fmt.Sprintf("Sex: %s\n", patient.Sex))
	}
	if len(patient.ActiveConditions) > 0 {
		b.WriteString("Active conditions: " + strings.Join(patient.ActiveConditions, ", ") + "\n")
	}
	if len(patient.CurrentMedications) > 0 {
		b.WriteString("Current medications: " + strings.Join(patient.CurrentMedications, ", ") + "\n")
	}
	if patient.FreeTextSummary != "" {
		b.WriteString("Summary: " + patient.FreeTextSummary + "\n")
	}

	b.WriteString("\n## Trial\n")
	b.WriteString("Title: " + trial.Title + "\n")
	if trial.Summary != "" {
		b.WriteString("Summary: " + trial.Summary + "\n")
	}
	if len(trial.Conditions) > 0 {
		b.WriteString("Conditions: " + strings.Join(trial.Conditions, ", ") + "\n")
	}
	if trial.Phase != "" {
		b.WriteString("Phase: " + trial.Phase + "\n")
	}

	sections := pipeline.SplitEligibilityCriteria(trial.EligibilityCriteriaText)
	if !sections.IsEmpty() {
		b.WriteString("\n## Eligibility criteria\n")
		if sections.General != "" {
			b.WriteString(sections.General + "\n")
		}
		if sections.Inclusion != "" {
			b.WriteString("\nInclusion criteria:\n" + sections.Inclusion + "\n")
		}
		if sections.Exclusion != "" {
			b.WriteString("\nExclusion criteria:\n" + sections.Exclusion + "\n")
		}
	}

	b.WriteString("\nRespond with a single JSON object and nothing else:\n")
	b.WriteString(`{"decision": "ELIGIBLE" | "INELIGIBLE" | "UNCERTAIN", "rationale": "<short explanation>", "criteria_snippets_used": ["<criteria snippets your decision relies on>"]}` + "\n")
	b.WriteString("Use UNCERTAIN when the information given is insufficient to decide.\n")

	return b.String()
}
