// Package dataio reads and writes pipeline datasets as JSON, JSON lines, CSV
// or Parquet, on the local filesystem or in Cloud Storage.
package dataio

import "fmt"

// FormatError reports a path whose extension has no codec, or content that
// failed to decode with the codec chosen for it.
type FormatError struct {
	Path    string
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("format error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("format error for %s: %s", e.Path, e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// StoreError wraps a failed read or write against a Store.
type StoreError struct {
	Op    string
	Path  string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
