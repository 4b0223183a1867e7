package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/jobrec-pipeline/internal/db"
	"github.com/jonathan/jobrec-pipeline/internal/logger"
	"github.com/jonathan/jobrec-pipeline/internal/pipeline/steps"
)

// RunStore persists runs, step status and artifact records. *db.DB
// implements it.
type RunStore interface {
	CreateRun(ctx context.Context, policyVersion string, params map[string]any) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
	UpsertRunStep(ctx context.Context, runID uuid.UUID, input *db.RunStepInput) (*db.RunStep, error)
	UpdateRunStepStatus(ctx context.Context, runID uuid.UUID, stepName string, status string, errorMsg *string, artifactID *uuid.UUID) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, input *db.ArtifactInput) (uuid.UUID, error)
}

// StepStatus is the in-memory record of one step.
type StepStatus struct {
	Step       string `json:"step"`
	Category   string `json:"category"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// tracker keeps step status in memory and mirrors it to the run store when
// one is configured. Store failures are logged and never fail the run.
type tracker struct {
	store   RunStore
	runID   uuid.UUID
	log     *logger.Logger
	order   []string
	status  map[string]*StepStatus
	started map[string]time.Time
}

func newTracker(ctx context.Context, store RunStore, runID uuid.UUID, log *logger.Logger) *tracker {
	t := &tracker{
		store:   store,
		runID:   runID,
		log:     log,
		order:   steps.Order(),
		status:  make(map[string]*StepStatus),
		started: make(map[string]time.Time),
	}
	for _, name := range t.order {
		def := steps.StepRegistry[name]
		t.status[name] = &StepStatus{Step: name, Category: def.Category, Status: db.StepStatusPending}
		if t.persistent() {
			if _, err := store.UpsertRunStep(ctx, runID, &db.RunStepInput{
				Step:     name,
				Category: def.Category,
				Status:   db.StepStatusPending,
			}); err != nil {
				log.Warn("Failed to record run step", "step", name, "error", err)
			}
		}
	}
	return t
}

func (t *tracker) persistent() bool {
	return t.store != nil && t.runID != uuid.Nil
}

func (t *tracker) completed() map[string]bool {
	done := make(map[string]bool, len(t.status))
	for name, s := range t.status {
		if s.Status == db.StepStatusCompleted {
			done[name] = true
		}
	}
	return done
}

func (t *tracker) start(ctx context.Context, step string) {
	t.started[step] = time.Now()
	t.set(ctx, step, db.StepStatusInProgress, nil)
}

func (t *tracker) finish(ctx context.Context, step string) {
	t.status[step].DurationMs = time.Since(t.started[step]).Milliseconds()
	t.set(ctx, step, db.StepStatusCompleted, nil)
}

func (t *tracker) skip(ctx context.Context, step string, reason string) {
	t.status[step].Error = reason
	t.set(ctx, step, db.StepStatusSkipped, nil)
}

func (t *tracker) fail(ctx context.Context, step string, err error) {
	if started, ok := t.started[step]; ok {
		t.status[step].DurationMs = time.Since(started).Milliseconds()
	}
	msg := err.Error()
	t.status[step].Error = msg
	t.set(ctx, step, db.StepStatusFailed, &msg)

	// Everything still pending can no longer run.
	for _, name := range t.order {
		if t.status[name].Status == db.StepStatusPending {
			t.set(ctx, name, db.StepStatusBlocked, nil)
		}
	}
}

func (t *tracker) set(ctx context.Context, step, status string, errMsg *string) {
	t.status[step].Status = status
	if !t.persistent() {
		return
	}
	if err := t.store.UpdateRunStepStatus(ctx, t.runID, step, status, errMsg, nil); err != nil {
		t.log.Warn("Failed to update run step", "step", step, "status", status, "error", err)
	}
}

func (t *tracker) snapshot() []StepStatus {
	out := make([]StepStatus, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.status[name])
	}
	return out
}
