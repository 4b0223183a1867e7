// Package types provides record definitions shared by every stage of the job-recommendation pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Interaction is a single user/job event after cleaning.
// InteractionID is optional for cleaned inputs; the raw contract requires it
// and synthesizes one from the row index when the source omits it.
type Interaction struct {
	InteractionID string `json:"interaction_id,omitempty" csv:"interaction_id" parquet:"interaction_id,optional"`
	UserID        string `json:"user_id" csv:"user_id" parquet:"user_id" validate:"required"`
	JobID         string `json:"job_id" csv:"job_id" parquet:"job_id" validate:"required"`
	EventType     string `json:"event_type" csv:"event_type" parquet:"event_type" validate:"required"`
}

// Key returns the (user, job) pair the interaction refers to.
func (i Interaction) Key() PairKey {
	return PairKey{UserID: i.UserID, JobID: i.JobID}
}

// PairKey identifies a (user, job) pair.
type PairKey struct {
	UserID string
	JobID  string
}
