package helper

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabase = "database"
	testUsername = "user"
	testPassword = "password"
)

// MustStartPostgresContainer starts a PostgreSQL container with the pgvector
// extension preinstalled and returns a teardown function together with the
// mapped port. Used by database tests and the runnable examples.
func MustStartPostgresContainer() (func(context.Context, ...testcontainers.TerminateOption) error, string, error) {
	dbContainer, err := postgres.Run(
		context.Background(),
		"pgvector/pgvector:pg17",
		postgres.WithDatabase(testDatabase),
		postgres.WithUsername(testUsername),
		postgres.WithPassword(testPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, "", err
	}

	return dbContainer.Terminate, dbPort.Port(), nil
}

// SetTestDatabaseConfigEnvs points the TRIALMATCH_DB_* environment variables
// at the test container for the duration of the test.
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Setenv("TRIALMATCH_DB_HOST", "localhost")
	t.Setenv("TRIALMATCH_DB_PORT", port)
	t.Setenv("TRIALMATCH_DB_DATABASE", testDatabase)
	t.Setenv("TRIALMATCH_DB_USERNAME", testUsername)
	t.Setenv("TRIALMATCH_DB_PASSWORD", testPassword)
	t.Setenv("TRIALMATCH_DB_SCHEMA", "public")
	t.Setenv("TRIALMATCH_DB_SSLMODE", "disable")
}
