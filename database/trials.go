package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/trialmatch/helper"
	"github.com/siherrmann/trialmatch/model"
	loadSql "github.com/siherrmann/trialmatch/sql"
)

// TrialsDBHandlerFunctions defines the interface for trial store operations.
type TrialsDBHandlerFunctions interface {
	UpsertTrials(records []*model.TrialRecord) error
	SelectTrial(trialID string) (*model.TrialRecord, error)
	SelectTrialCount() (int, error)
	SelectCandidateTrialIDs(ageMonths *int, sex model.Sex, limit int) ([]string, error)
	DeleteTrial(trialID string) error
}

// TrialsDBHandler handles trial-store database operations
type TrialsDBHandler struct {
	db *helper.Database
}

// NewTrialsDBHandler creates a new trial store handler.
// It initializes the database connection and loads trial-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTrialsDBHandler(db *helper.Database, force bool) (*TrialsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	trialsDbHandler := &TrialsDBHandler{
		db: db,
	}

	err := loadSql.LoadTrialsSql(trialsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load trials sql", err)
	}

	err = trialsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TrialsDBHandler")

	return trialsDbHandler, nil
}

// CreateTable creates the 'trials' table in the database.
// If the table already exists, it does not create it again.
// It also creates the demographic indexes used by the candidate filter.
func (h *TrialsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_trials();`)
	if err != nil {
		log.Panicf("error initializing trials table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table trials")

	return nil
}

// UpsertTrials inserts or replaces trial records by trial ID. A record with
// an inverted age range keeps its place in the corpus but has its bounds
// dropped, so it is excluded from structured filtering while remaining
// available for ranking and adjudication. A record without a trial ID is
// skipped. Neither case aborts the rest of the batch.
func (h *TrialsDBHandler) UpsertTrials(records []*model.TrialRecord) error {
	for i, record := range records {
		if record.TrialID == "" {
			h.db.Logger.Warn("Skipping trial record without trial ID", slog.Int("index", i))
			continue
		}

		minAge := record.MinimumAgeMonths
		maxAge := record.MaximumAgeMonths
		if !record.HasValidAgeRange() {
			h.db.Logger.Warn(
				"Trial has inverted age range, dropping bounds from structured filtering",
				slog.String("trial_id", record.TrialID),
				slog.Int("minimum_age_months", *record.MinimumAgeMonths),
				slog.Int("maximum_age_months", *record.MaximumAgeMonths),
			)
			minAge = nil
			maxAge = nil
		}

		if err := h.upsertTrial(record, minAge, maxAge); err != nil {
			return helper.NewError(fmt.Sprintf("upsert trial %s", record.TrialID), err)
		}
	}

	return nil
}

func (h *TrialsDBHandler) upsertTrial(record *model.TrialRecord, minAge *int, maxAge *int) error {
	interventionsJSON, err := json.Marshal(record.Interventions)
	if err != nil {
		return helper.NewError("marshal interventions", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_trial($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		record.TrialID,
		record.Title,
		record.Summary,
		pq.Array(record.Conditions),
		interventionsJSON,
		record.Phase,
		nullableInt(record.EnrollmentCount),
		record.EligibilityCriteriaText,
		string(record.Sex),
		nullableInt(minAge),
		nullableInt(maxAge),
		record.HealthyVolunteers,
		record.Metadata,
	)

	stored, err := scanTrial(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*record = *stored

	return nil
}

// SelectTrial retrieves a trial by its external trial ID
func (h *TrialsDBHandler) SelectTrial(trialID string) (*model.TrialRecord, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_trial($1)`,
		trialID,
	)

	record, err := scanTrial(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return record, nil
}

// SelectTrialCount returns the number of trials in the store
func (h *TrialsDBHandler) SelectTrialCount() (int, error) {
	row := h.db.Instance.QueryRow(`SELECT select_trial_count()`)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

// SelectCandidateTrialIDs returns the IDs of trials whose demographic fields
// are compatible with the given patient age and sex, ordered by trial ID.
// Unbounded trial age limits always satisfy the predicate; a nil patient age
// skips the age predicate entirely.
func (h *TrialsDBHandler) SelectCandidateTrialIDs(ageMonths *int, sex model.Sex, limit int) ([]string, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_candidate_trial_ids($1, $2, $3)`,
		nullableInt(ageMonths),
		string(sex),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var trialIDs []string
	for rows.Next() {
		var trialID string
		if err := rows.Scan(&trialID); err != nil {
			return nil, helper.NewError("scan", err)
		}

		trialIDs = append(trialIDs, trialID)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return trialIDs, nil
}

// DeleteTrial deletes a trial by its external trial ID
func (h *TrialsDBHandler) DeleteTrial(trialID string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_trial($1)`,
		trialID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// rowScanner is satisfied by both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrial(row rowScanner) (*model.TrialRecord, error) {
	record := &model.TrialRecord{}

	var interventionsJSON []byte
	var enrollment, minAge, maxAge sql.NullInt64
	var sexValue string

	err := row.Scan(
		&record.ID,
		&record.TrialID,
		&record.Title,
		&record.Summary,
		pq.Array(&record.Conditions),
		&interventionsJSON,
		&record.Phase,
		&enrollment,
		&record.EligibilityCriteriaText,
		&sexValue,
		&minAge,
		&maxAge,
		&record.HealthyVolunteers,
		&record.Metadata,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Sex = model.Sex(sexValue)
	record.EnrollmentCount = intPointer(enrollment)
	record.MinimumAgeMonths = intPointer(minAge)
	record.MaximumAgeMonths = intPointer(maxAge)

	if len(interventionsJSON) > 0 {
		if err := json.Unmarshal(interventionsJSON, &record.Interventions); err != nil {
			return nil, fmt.Errorf("unmarshaling interventions: %w", err)
		}
	}

	return record, nil
}

func nullableInt(value *int) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func intPointer(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
