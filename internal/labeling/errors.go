// Package labeling converts raw interaction events into one supervision label
// per (user, job) pair.
package labeling

import (
	"fmt"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// EmptyConflictSetError means a grouping key reached conflict resolution
// without any mapped events. It always indicates a bug upstream of the
// resolver.
type EmptyConflictSetError struct {
	Key *types.PairKey
}

func (e *EmptyConflictSetError) Error() string {
	if e.Key != nil {
		return fmt.Sprintf("empty conflict set for user %q, job %q", e.Key.UserID, e.Key.JobID)
	}
	return "empty conflict set: no events provided for conflict resolution"
}

// NoPositivesError is returned when a labeled dataset contains no positive rows.
type NoPositivesError struct {
	Total int
}

func (e *NoPositivesError) Error() string {
	return fmt.Sprintf("no positive interactions found (label == %d) among %d labeled rows", types.LabelPositive, e.Total)
}
