// Package policy holds the declarative labeling policy that turns interaction
// event types into supervision labels.
package policy

import "fmt"

// LoadError is returned when a labeling policy is missing, malformed, or
// lacks required keys. It aborts a run before any labeling happens.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	where := e.Path
	if where == "" {
		where = "(inline)"
	}
	if e.Cause != nil {
		return fmt.Sprintf("policy load error: %s: %s: %v", where, e.Message, e.Cause)
	}
	return fmt.Sprintf("policy load error: %s: %s", where, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
