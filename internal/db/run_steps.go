package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runStepColumns = `id, run_id, step, category, status, started_at, completed_at,
		        duration_ms, artifact_id, error_message, parameters, created_at, updated_at`

// UpsertRunStep creates a run step, or resets an existing one to the given
// status and parameters.
func (db *DB) UpsertRunStep(ctx context.Context, runID uuid.UUID, input *RunStepInput) (*RunStep, error) {
	parametersJSON, err := marshalNullable(input.Parameters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO run_steps (run_id, step, category, status, parameters)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, step) DO UPDATE
		 SET category = EXCLUDED.category, status = EXCLUDED.status,
		     parameters = EXCLUDED.parameters, error_message = NULL, updated_at = NOW()
		 RETURNING `+runStepColumns,
		runID, input.Step, input.Category, input.Status, parametersJSON,
	)
	step, err := scanRunStep(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert run step: %w", err)
	}
	return step, nil
}

// GetRunStep retrieves a run step by run_id and step name
func (db *DB) GetRunStep(ctx context.Context, runID uuid.UUID, stepName string) (*RunStep, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+runStepColumns+`
		 FROM run_steps
		 WHERE run_id = $1 AND step = $2`,
		runID, stepName,
	)
	step, err := scanRunStep(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run step: %w", err)
	}
	return step, nil
}

// ListRunSteps retrieves all steps for a run, optionally filtered by status or category
func (db *DB) ListRunSteps(ctx context.Context, runID uuid.UUID, status, category *string) ([]RunStep, error) {
	query, args := buildListRunStepsQuery(runID, status, category)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []RunStep
	for rows.Next() {
		step, err := scanRunStep(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		steps = append(steps, *step)
	}
	return steps, rows.Err()
}

func buildListRunStepsQuery(runID uuid.UUID, status, category *string) (string, []any) {
	query := `SELECT ` + runStepColumns + `
	          FROM run_steps
	          WHERE run_id = $1`
	args := []any{runID}
	argPos := 2

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, *status)
		argPos++
	}

	if category != nil {
		query += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, *category)
	}

	query += " ORDER BY created_at"
	return query, args
}

// UpdateRunStepStatus updates the status and related fields of a run step
func (db *DB) UpdateRunStepStatus(ctx context.Context, runID uuid.UUID, stepName string, status string, errorMsg *string, artifactID *uuid.UUID) error {
	currentStep, err := db.GetRunStep(ctx, runID, stepName)
	if err != nil {
		return err
	}
	if currentStep == nil {
		return fmt.Errorf("step not found: %s", stepName)
	}

	t := stepTimes(status, currentStep.StartedAt, time.Now())

	_, err = db.pool.Exec(ctx,
		`UPDATE run_steps
		 SET status = $1, started_at = COALESCE($2, started_at), completed_at = $3,
		     duration_ms = $4, error_message = $5, artifact_id = COALESCE($6, artifact_id),
		     updated_at = NOW()
		 WHERE run_id = $7 AND step = $8`,
		status, t.startedAt, t.completedAt, t.durationMs, errorMsg, artifactID, runID, stepName,
	)
	if err != nil {
		return fmt.Errorf("failed to update run step status: %w", err)
	}

	return nil
}

type transition struct {
	startedAt   *time.Time
	completedAt *time.Time
	durationMs  *int
}

// stepTimes derives the timestamps a status change writes. A step starts the
// first time it goes in progress; duration is only known on completion.
func stepTimes(status string, startedAt *time.Time, now time.Time) transition {
	var t transition
	if status == StepStatusInProgress && startedAt == nil {
		t.startedAt = &now
	}
	if status == StepStatusCompleted && startedAt != nil {
		dur := int(now.Sub(*startedAt).Milliseconds())
		t.durationMs = &dur
	}
	if IsTerminal(status) {
		t.completedAt = &now
	}
	return t
}

func scanRunStep(row pgx.Row) (*RunStep, error) {
	var step RunStep
	var parametersJSON []byte
	if err := row.Scan(&step.ID, &step.RunID, &step.Step, &step.Category, &step.Status,
		&step.StartedAt, &step.CompletedAt, &step.DurationMs, &step.ArtifactID,
		&step.ErrorMessage, &parametersJSON, &step.CreatedAt, &step.UpdatedAt); err != nil {
		return nil, err
	}
	if parametersJSON != nil {
		_ = json.Unmarshal(parametersJSON, &step.Parameters)
	}
	return &step, nil
}
