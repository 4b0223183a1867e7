package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents a pipeline run record
type Run struct {
	ID            uuid.UUID      `json:"id"`
	PolicyVersion string         `json:"policy_version"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// Artifact records where a run wrote a dataset and a JSON summary of it.
type Artifact struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	Location  string    `json:"location,omitempty"`
	RowCount  int       `json:"row_count"`
	Content   any       `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtifactInput is what SaveArtifact persists.
type ArtifactInput struct {
	Step     string
	Category string
	Location string
	RowCount int
	Content  any
}

// ArtifactFilters holds optional filters for listing artifacts
type ArtifactFilters struct {
	RunID    uuid.UUID
	Step     string
	Category string
}
