// Package db provides PostgreSQL persistence for pipeline runs, their step
// status and the artifacts they produce.
package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the run, artifact and step tables when missing.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateRun creates a new pipeline run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, policyVersion string, params map[string]any) (uuid.UUID, error) {
	paramsJSON, err := marshalNullable(params)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal run parameters: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO pipeline_runs (policy_version, parameters, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		policyVersion, paramsJSON, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a pipeline run as finished with status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE pipeline_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a pipeline run by ID. A missing run yields nil, nil.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	var paramsJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, policy_version, parameters, status, created_at, completed_at
		 FROM pipeline_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.PolicyVersion, &paramsJSON, &run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if paramsJSON != nil {
		_ = json.Unmarshal(paramsJSON, &run.Parameters)
	}
	return &run, nil
}

// ListRuns retrieves recent pipeline runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, policy_version, parameters, status, created_at, completed_at
		 FROM pipeline_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var paramsJSON []byte
		if err := rows.Scan(&run.ID, &run.PolicyVersion, &paramsJSON, &run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if paramsJSON != nil {
			_ = json.Unmarshal(paramsJSON, &run.Parameters)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun deletes a pipeline run and all its artifacts (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM pipeline_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// SaveArtifact stores the location and JSON summary of a dataset a run
// produced. Saving the same step twice replaces the earlier record.
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, input *ArtifactInput) (uuid.UUID, error) {
	contentJSON, err := marshalNullable(input.Content)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO artifacts (run_id, step, category, location, row_count, content)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET category = $3, location = $4, row_count = $5, content = $6, created_at = NOW()
		 RETURNING id`,
		runID, input.Step, input.Category, input.Location, input.RowCount, contentJSON,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save artifact %s: %w", input.Step, err)
	}
	return id, nil
}

// GetArtifact retrieves an artifact by run ID and step. A missing artifact
// yields nil, nil.
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) (*Artifact, error) {
	var a Artifact
	var category, location *string
	var rowCount *int
	var contentJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, run_id, step, category, location, row_count, content, created_at
		 FROM artifacts WHERE run_id = $1 AND step = $2`,
		runID, step,
	).Scan(&a.ID, &a.RunID, &a.Step, &category, &location, &rowCount, &contentJSON, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", step, err)
	}

	if category != nil {
		a.Category = *category
	}
	if location != nil {
		a.Location = *location
	}
	if rowCount != nil {
		a.RowCount = *rowCount
	}
	if len(contentJSON) > 0 {
		var content any
		if err := json.Unmarshal(contentJSON, &content); err == nil {
			a.Content = content
		}
	}
	return &a, nil
}

// ListArtifacts retrieves artifacts with optional filters
func (db *DB) ListArtifacts(ctx context.Context, filters ArtifactFilters) ([]Artifact, error) {
	query, args := buildListArtifactsQuery(filters)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Step, &a.Category, &a.Location, &a.RowCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

func buildListArtifactsQuery(filters ArtifactFilters) (string, []any) {
	query := `SELECT id, run_id, step, COALESCE(category, ''), COALESCE(location, ''),
		      COALESCE(row_count, 0), created_at
		FROM artifacts WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.RunID != uuid.Nil {
		query += fmt.Sprintf(" AND run_id = $%d", argNum)
		args = append(args, filters.RunID)
		argNum++
	}
	if filters.Step != "" {
		query += fmt.Sprintf(" AND step = $%d", argNum)
		args = append(args, filters.Step)
		argNum++
	}
	if filters.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, filters.Category)
	}

	query += " ORDER BY created_at ASC"
	return query, args
}

// marshalNullable encodes v, mapping nil to SQL NULL.
func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
