package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"

	"github.com/lib/pq"
)

//go:embed init.sql
var initSQL string

//go:embed trials.sql
var trialsSQL string

//go:embed embeddings.sql
var embeddingsSQL string

// Function lists for verification
var TrialsFunctions = []string{
	"init_trials",
	"upsert_trial",
	"select_trial",
	"select_trial_count",
	"select_candidate_trial_ids",
	"delete_trial",
}

var EmbeddingsFunctions = []string{
	"init_trial_embeddings",
	"upsert_trial_embedding",
	"select_trial_embedding_count",
	"select_trials_by_similarity",
	"delete_trial_embedding",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadTrialsSql loads trial-store SQL functions
func LoadTrialsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, TrialsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing trials functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(trialsSQL)
	if err != nil {
		return fmt.Errorf("error executing trials SQL: %w", err)
	}

	exist, err := checkFunctions(db, TrialsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL trials functions loaded successfully")
	return nil
}

// LoadEmbeddingsSql loads similarity-index SQL functions
func LoadEmbeddingsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, EmbeddingsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing embeddings functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(embeddingsSQL)
	if err != nil {
		return fmt.Errorf("error executing embeddings SQL: %w", err)
	}

	exist, err := checkFunctions(db, EmbeddingsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL embeddings functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL function files in dependency order.
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadTrialsSql(db, force); err != nil {
		return err
	}
	return LoadEmbeddingsSql(db, force)
}

// checkFunctions reports whether every named SQL function exists.
func checkFunctions(db *sql.DB, names []string) (bool, error) {
	row := db.QueryRow(
		`SELECT COUNT(DISTINCT proname) FROM pg_proc WHERE proname = ANY($1)`,
		pq.Array(names),
	)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("error counting functions: %w", err)
	}

	return count == len(names), nil
}
