package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/trialmatch/helper"
	"github.com/siherrmann/trialmatch/model"
	loadSql "github.com/siherrmann/trialmatch/sql"
)

// EmbeddingsDBHandlerFunctions defines the interface for similarity index operations.
type EmbeddingsDBHandlerFunctions interface {
	UpsertTrialEmbedding(trialID string, embedding []float32) error
	IndexedCount() (int, error)
	SelectTrialsBySimilarity(embedding []float32, limit int, allowedIDs []string) ([]*model.MatchCandidate, error)
	DeleteTrialEmbedding(trialID string) error
}

// EmbeddingsDBHandler handles the pgvector similarity index over trial
// description embeddings
type EmbeddingsDBHandler struct {
	db *helper.Database
}

// NewEmbeddingsDBHandler creates a new similarity index handler.
// It initializes the database connection and loads embedding-related SQL
// functions. The trials table must exist first, as embeddings reference it.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEmbeddingsDBHandler(db *helper.Database, embeddingDim int, force bool) (*EmbeddingsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	embeddingsDbHandler := &EmbeddingsDBHandler{
		db: db,
	}

	err := loadSql.LoadEmbeddingsSql(embeddingsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load embeddings sql", err)
	}

	err = embeddingsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EmbeddingsDBHandler")

	return embeddingsDbHandler, nil
}

// CreateTable creates the 'trial_embeddings' table in the database.
// If the table already exists, it does not create it again.
// It also creates the HNSW index for cosine similarity search.
func (h *EmbeddingsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_trial_embeddings($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing trial_embeddings table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table trial_embeddings")

	return nil
}

// UpsertTrialEmbedding inserts or replaces the description embedding for a trial
func (h *EmbeddingsDBHandler) UpsertTrialEmbedding(trialID string, embedding []float32) error {
	embeddingVector := pgvector.NewVector(embedding)
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_trial_embedding($1, $2)`,
		trialID,
		embeddingVector,
	)

	var storedTrialID string
	if err := row.Scan(&storedTrialID); err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// IndexedCount returns the number of trials in the similarity index
func (h *EmbeddingsDBHandler) IndexedCount() (int, error) {
	row := h.db.Instance.QueryRow(`SELECT select_trial_embedding_count()`)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

// SelectTrialsBySimilarity performs cosine similarity search over trial
// description embeddings, returning at most limit candidates sorted by
// descending similarity with trial ID as the tie-break.
//
// A nil allowedIDs searches the full index. An empty non-nil allowedIDs
// returns an empty result without touching the database; callers decide
// whether to retry unrestricted.
func (h *EmbeddingsDBHandler) SelectTrialsBySimilarity(embedding []float32, limit int, allowedIDs []string) ([]*model.MatchCandidate, error) {
	if allowedIDs != nil && len(allowedIDs) == 0 {
		return []*model.MatchCandidate{}, nil
	}

	embeddingVector := pgvector.NewVector(embedding)

	var allowedParam interface{}
	if allowedIDs != nil {
		allowedParam = pq.Array(allowedIDs)
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_trials_by_similarity($1, $2, $3)`,
		embeddingVector,
		limit,
		allowedParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var candidates []*model.MatchCandidate
	for rows.Next() {
		candidate := &model.MatchCandidate{}
		err := rows.Scan(
			&candidate.TrialID,
			&candidate.SimilarityScore,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		candidates = append(candidates, candidate)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return candidates, nil
}

// DeleteTrialEmbedding deletes a trial's embedding by trial ID
func (h *EmbeddingsDBHandler) DeleteTrialEmbedding(trialID string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_trial_embedding($1)`,
		trialID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
