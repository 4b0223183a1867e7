// Package validation enforces the raw data contracts on jobs, users and
// interactions before any cleaning or labeling runs.
package validation

import (
	"fmt"
	"strings"
)

// Error represents a general validation error
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// EmptyDatasetError is returned when a dataset has no rows.
type EmptyDatasetError struct {
	Dataset string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("dataset %q is empty", e.Dataset)
}

// SchemaError collects every field that broke the record contract.
type SchemaError struct {
	Dataset    string
	Violations []string
	Cause      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed for %s (%d violations):\n%s",
		e.Dataset, len(e.Violations), strings.Join(e.Violations, "\n"))
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// PrimaryKeyError reports missing or duplicated primary key values.
type PrimaryKeyError struct {
	Dataset    string
	Key        string
	Duplicates []string
	Missing    []int
}

func (e *PrimaryKeyError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("primary key %q of %s is empty at rows %v", e.Key, e.Dataset, e.Missing)
	}
	return fmt.Sprintf("duplicate values found in primary key %q of %s: %v", e.Key, e.Dataset, e.Duplicates)
}

// ReferentialIntegrityError reports interactions pointing at unknown users or jobs.
type ReferentialIntegrityError struct {
	Dataset      string
	MissingUsers []string
	MissingJobs  []string
}

func (e *ReferentialIntegrityError) Error() string {
	var parts []string
	if len(e.MissingUsers) > 0 {
		parts = append(parts, fmt.Sprintf("%d interactions reference missing users in %s: %v",
			len(e.MissingUsers), e.Dataset, e.MissingUsers))
	}
	if len(e.MissingJobs) > 0 {
		parts = append(parts, fmt.Sprintf("%d interactions reference missing jobs in %s: %v",
			len(e.MissingJobs), e.Dataset, e.MissingJobs))
	}
	return strings.Join(parts, "\n")
}
