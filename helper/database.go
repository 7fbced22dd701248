package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the PostgreSQL connection parameters.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration builds a configuration from the environment.
// A .env file in the working directory is loaded when present. All of
// TRIALMATCH_DB_HOST, TRIALMATCH_DB_PORT, TRIALMATCH_DB_DATABASE,
// TRIALMATCH_DB_USERNAME and TRIALMATCH_DB_PASSWORD are required;
// TRIALMATCH_DB_SCHEMA defaults to public and TRIALMATCH_DB_SSLMODE to
// disable.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("TRIALMATCH_DB_HOST"),
		Port:     os.Getenv("TRIALMATCH_DB_PORT"),
		Database: os.Getenv("TRIALMATCH_DB_DATABASE"),
		Username: os.Getenv("TRIALMATCH_DB_USERNAME"),
		Password: os.Getenv("TRIALMATCH_DB_PASSWORD"),
		Schema:   os.Getenv("TRIALMATCH_DB_SCHEMA"),
		SSLMode:  os.Getenv("TRIALMATCH_DB_SSLMODE"),
	}

	if config.Host == "" || config.Port == "" || config.Database == "" || config.Username == "" || config.Password == "" {
		return nil, fmt.Errorf("incomplete database configuration, set the TRIALMATCH_DB_* environment variables")
	}
	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config, nil
}

// ConnectionString returns the lib/pq connection string for the configuration.
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s search_path=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.Schema, c.SSLMode,
	)
}

// Database wraps a sql.DB connection together with a logger, shared by all
// database handlers.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens and pings a PostgreSQL connection. Connection failure
// at startup is unrecoverable, so it exits the process.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatalf("error pinging database: %v", err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host), slog.String("database", config.Database))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	if d.Instance != nil {
		return d.Instance.Close()
	}
	return nil
}

// NewTestDatabase opens a connection for tests with a quiet logger.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewDatabase("trialmatch_test", config, logger)
}
