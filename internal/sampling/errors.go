// Package sampling generates negative (user, job) pairs for contrastive
// training, optionally biased by job popularity.
package sampling

import "fmt"

// SamplingInputError reports a malformed job universe or sampling parameter.
// It is raised before any sampling is attempted.
type SamplingInputError struct {
	Message string
	Cause   error
}

func (e *SamplingInputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sampling input error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("sampling input error: %s", e.Message)
}

func (e *SamplingInputError) Unwrap() error {
	return e.Cause
}
