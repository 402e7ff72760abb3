// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"field-validation/internal/common/config"

	_ "github.com/lib/pq"
)

// Schema creates the tables the postgres rule source reads. It is
// idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS forms (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS form_fields (
    id       TEXT PRIMARY KEY,
    form_id  TEXT NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
    label    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS validation_rules (
    id                          BIGINT PRIMARY KEY,
    form_id                     TEXT NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
    target_field_id             TEXT NOT NULL,
    validation_type             TEXT NOT NULL,
    depends_on_field_id         TEXT,
    config                      JSONB,
    error_message               TEXT,
    success_message             TEXT,
    is_blocking                 BOOLEAN NOT NULL DEFAULT TRUE,
    requires_dependency_filled  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_validation_rules_form ON validation_rules(form_id);
CREATE INDEX IF NOT EXISTS idx_form_fields_form ON form_fields(form_id);
`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Migrate applies Schema.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
