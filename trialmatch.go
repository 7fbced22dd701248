package trialmatch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/trialmatch/core/llm"
	"github.com/siherrmann/trialmatch/core/matching"
	"github.com/siherrmann/trialmatch/core/pipeline"
	"github.com/siherrmann/trialmatch/database"
	"github.com/siherrmann/trialmatch/helper"
	"github.com/siherrmann/trialmatch/model"
	loadSql "github.com/siherrmann/trialmatch/sql"
)

// Matcher provides a unified interface to the trial store, the similarity
// index and the three-stage matching pipeline
type Matcher struct {
	DB         *helper.Database
	Trials     *database.TrialsDBHandler
	Embeddings *database.EmbeddingsDBHandler
	Pipeline   *pipeline.Pipeline // Embedding pipeline for ingestion and ranking
	Config     model.MatchConfig
	// Matching stages, assembled once an evaluator is set
	orchestrator *matching.Orchestrator
	evaluator    llm.Client
	// Logging
	log *slog.Logger
}

// NewMatcher creates a new Matcher instance with all handlers initialized
func NewMatcher(config *helper.DatabaseConfiguration, embeddingDim int) (*Matcher, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("trialmatch", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create handlers in dependency order (trials first, embeddings
	// reference them). force=false to not reload if functions already exist
	trials, err := database.NewTrialsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create trials handler", err)
	}

	embeddings, err := database.NewEmbeddingsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create embeddings handler", err)
	}

	return &Matcher{
		DB:         db,
		Trials:     trials,
		Embeddings: embeddings,
		Config:     model.DefaultMatchConfig(),
		log:        logger,
	}, nil
}

// Close closes the database connection
func (m *Matcher) Close() error {
	if m.DB != nil && m.DB.Instance != nil {
		return m.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the embedding pipeline for ingestion and ranking
func (m *Matcher) SetPipeline(pipeline *pipeline.Pipeline) {
	m.Pipeline = pipeline
	m.rebuildOrchestrator()
}

// UseDefaultEmbedder sets up the default embedding pipeline using the
// all-MiniLM-L6-v2 model (384 dimensions)
func (m *Matcher) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	m.Pipeline = pipeline.NewPipeline(embedder)
	m.rebuildOrchestrator()
	return nil
}

// SetEvaluator sets the evaluator model used for eligibility adjudication
func (m *Matcher) SetEvaluator(client llm.Client) {
	m.evaluator = client
	m.rebuildOrchestrator()
}

// SetMatchConfig replaces the matching configuration for subsequent runs
func (m *Matcher) SetMatchConfig(config model.MatchConfig) {
	m.Config = config
	m.rebuildOrchestrator()
}

func (m *Matcher) rebuildOrchestrator() {
	if m.Pipeline == nil || m.evaluator == nil {
		m.orchestrator = nil
		return
	}

	m.orchestrator = matching.NewOrchestrator(
		m.Trials,
		matching.NewCandidateFilter(m.Trials),
		matching.NewRanker(m.Embeddings, m.Pipeline),
		matching.NewAdjudicator(m.evaluator, m.Config.MaxAdjudicationRetries, m.Config.InitialBackoff, m.log),
		m.Config,
		m.log,
	)
}

// IngestTrials stores trial records and indexes their description
// embeddings. Records without a trial ID are skipped by the store; records
// with inverted age bounds are kept with their bounds dropped. Returns the
// number of trials indexed.
func (m *Matcher) IngestTrials(records []*model.TrialRecord) (int, error) {
	if m.Pipeline == nil {
		return 0, helper.NewError("ingest trials", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	if err := m.Trials.UpsertTrials(records); err != nil {
		return 0, helper.NewError("upsert trials", err)
	}

	indexed := 0
	for _, record := range records {
		if record.TrialID == "" {
			continue
		}

		embedding, err := m.Pipeline.EmbedTrial(record)
		if err != nil {
			return indexed, helper.NewError(fmt.Sprintf("embed trial %s", record.TrialID), err)
		}

		if err := m.Embeddings.UpsertTrialEmbedding(record.TrialID, embedding); err != nil {
			return indexed, helper.NewError(fmt.Sprintf("index trial %s", record.TrialID), err)
		}
		indexed++
	}

	m.log.Info("Ingested trials", slog.Int("records", len(records)), slog.Int("indexed", indexed))

	return indexed, nil
}

// MatchPatient runs the full matching pipeline for one patient
func (m *Matcher) MatchPatient(ctx context.Context, patient *model.PatientProfile) (*model.PatientMatchResult, error) {
	if m.orchestrator == nil {
		return nil, helper.NewError("match patient", fmt.Errorf("pipeline or evaluator not set, use SetPipeline() and SetEvaluator() first"))
	}

	return m.orchestrator.MatchPatient(ctx, patient)
}

// MatchPatients runs the matching pipeline for a batch of patients.
// Patients are isolated from each other, one failing patient does not abort
// the batch. Results are ordered like the input.
func (m *Matcher) MatchPatients(ctx context.Context, patients []*model.PatientProfile) ([]*model.PatientMatchResult, error) {
	if m.orchestrator == nil {
		return nil, helper.NewError("match patients", fmt.Errorf("pipeline or evaluator not set, use SetPipeline() and SetEvaluator() first"))
	}

	return m.orchestrator.MatchPatients(ctx, patients), nil
}
