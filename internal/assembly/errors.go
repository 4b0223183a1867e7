// Package assembly merges labeled positives and sampled negatives into
// training-ready datasets.
package assembly

import (
	"fmt"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// InvariantViolation reports a row that breaks a dataset precondition. It is
// fatal: the assembler returns no rows alongside it.
type InvariantViolation struct {
	Side    string
	Index   int
	Row     types.LabeledPair
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s row %d (user %q, job %q, label %d): %s",
		e.Side, e.Index, e.Row.UserID, e.Row.JobID, e.Row.Label, e.Message)
}
