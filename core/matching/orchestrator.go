package matching

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/siherrmann/trialmatch/database"
	"github.com/siherrmann/trialmatch/helper"
	"github.com/siherrmann/trialmatch/model"
	"golang.org/x/sync/errgroup"
)

// Stage is the pipeline stage a patient run is currently in.
type Stage string

const (
	StageFiltering    Stage = "FILTERING"
	StageRanking      Stage = "RANKING"
	StageAdjudicating Stage = "ADJUDICATING"
)

// Orchestrator runs the three matching stages in order for one patient and
// fans out over patients for batch runs. Stages always advance
// FILTERING -> RANKING -> ADJUDICATING; a run only ends FAILED when the
// patient profile itself is invalid.
type Orchestrator struct {
	trials      database.TrialsDBHandlerFunctions
	filter      *CandidateFilter
	ranker      *Ranker
	adjudicator *Adjudicator
	config      model.MatchConfig
	logger      *slog.Logger
}

// NewOrchestrator creates a new matching orchestrator
func NewOrchestrator(
	trials database.TrialsDBHandlerFunctions,
	filter *CandidateFilter,
	ranker *Ranker,
	adjudicator *Adjudicator,
	config model.MatchConfig,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		trials:      trials,
		filter:      filter,
		ranker:      ranker,
		adjudicator: adjudicator,
		config:      config,
		logger:      logger,
	}
}

// MatchPatient runs the full pipeline for one patient. An invalid profile
// returns a FAILED result and no error; infrastructure failures return an
// error and no result. A DONE result's matches keep the ranker's order,
// verdicts never reorder them.
func (o *Orchestrator) MatchPatient(ctx context.Context, patient *model.PatientProfile) (*model.PatientMatchResult, error) {
	runID := uuid.New()

	if err := patient.Validate(); err != nil {
		o.logger.Warn(
			"Patient profile failed validation",
			slog.String("patient_id", patient.PatientID),
			slog.String("error", err.Error()),
		)
		return &model.PatientMatchResult{
			RunID:         runID,
			PatientID:     patient.PatientID,
			Status:        model.MatchStatusFailed,
			FailureReason: err.Error(),
			Matches:       []model.TrialMatch{},
		}, nil
	}

	o.logStage(patient, runID, StageFiltering)
	candidateIDs, err := o.filter.Filter(patient, o.config.CandidateLimit)
	if err != nil {
		return nil, helper.NewError("candidate filtering", err)
	}

	o.logStage(patient, runID, StageRanking)
	candidates, err := o.ranker.Rank(patient, candidateIDs, o.config.TopK)
	if err != nil {
		return nil, helper.NewError("similarity ranking", err)
	}

	o.logStage(patient, runID, StageAdjudicating)
	matches, err := o.adjudicateCandidates(ctx, patient, candidates)
	if err != nil {
		return nil, helper.NewError("adjudication", err)
	}

	o.logger.Info(
		"Patient matching run complete",
		slog.String("patient_id", patient.PatientID),
		slog.String("run_id", runID.String()),
		slog.Int("matches", len(matches)),
	)

	return &model.PatientMatchResult{
		RunID:     runID,
		PatientID: patient.PatientID,
		Status:    model.MatchStatusDone,
		Matches:   matches,
	}, nil
}

// adjudicateCandidates fans adjudication out over the ranked candidates with
// bounded concurrency. Results are written by rank index so the output slice
// keeps the ranker's order regardless of call completion order.
func (o *Orchestrator) adjudicateCandidates(ctx context.Context, patient *model.PatientProfile, candidates []*model.MatchCandidate) ([]model.TrialMatch, error) {
	matches := make([]model.TrialMatch, len(candidates))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.config.AdjudicationConcurrency)

	for i, candidate := range candidates {
		group.Go(func() error {
			trial, err := o.trials.SelectTrial(candidate.TrialID)
			if err != nil {
				return helper.NewError("select trial "+candidate.TrialID, err)
			}

			verdict := o.adjudicator.Adjudicate(groupCtx, patient, trial)
			matches[i] = model.TrialMatch{
				Trial:     trial,
				Candidate: *candidate,
				Verdict:   verdict,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return matches, nil
}

// MatchPatients runs the pipeline for a batch of patients with bounded
// concurrency. Patients are isolated from each other: one patient's failure
// becomes a FAILED result in that patient's slot and the rest of the batch
// runs to completion. Results are ordered like the input.
func (o *Orchestrator) MatchPatients(ctx context.Context, patients []*model.PatientProfile) []*model.PatientMatchResult {
	results := make([]*model.PatientMatchResult, len(patients))

	group := new(errgroup.Group)
	group.SetLimit(o.config.PatientConcurrency)

	for i, patient := range patients {
		group.Go(func() error {
			result, err := o.MatchPatient(ctx, patient)
			if err != nil {
				o.logger.Error(
					"Patient pipeline failed",
					slog.String("patient_id", patient.PatientID),
					slog.String("error", err.Error()),
				)
				result = &model.PatientMatchResult{
					RunID:         uuid.New(),
					PatientID:     patient.PatientID,
					Status:        model.MatchStatusFailed,
					FailureReason: err.Error(),
					Matches:       []model.TrialMatch{},
				}
			}
			results[i] = result
			return nil
		})
	}

	// Goroutines never return errors, failures are captured per patient.
	_ = group.Wait()

	return results
}

func (o *Orchestrator) logStage(patient *model.PatientProfile, runID uuid.UUID, stage Stage) {
	o.logger.Info(
		"Entering pipeline stage",
		slog.String("patient_id", patient.PatientID),
		slog.String("run_id", runID.String()),
		slog.String("stage", string(stage)),
	)
}
