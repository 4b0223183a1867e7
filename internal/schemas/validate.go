// Package schemas validates pipeline artifacts against the embedded JSON
// Schema documents.
package schemas

import (
	"encoding/json"
	"fmt"
	"strings"

	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// maxReported caps the violations kept on a ValidationError; a bad dataset
// can break the same rule on every row.
const maxReported = 20

// ValidationError lists the fields of a document that broke its schema.
type ValidationError struct {
	Schema string
	Errors []FieldError
	// Total counts every violation, including those not kept in Errors.
	Total int
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d violations:\n", ve.Schema, ve.Total)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	if ve.Total > len(ve.Errors) {
		fmt.Fprintf(&sb, "  ... and %d more\n", ve.Total-len(ve.Errors))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Schema  string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Schema, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Schema, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateDocument validates an in-memory value against one of the embedded
// artifact schemas (see the schemas.* name constants). The value is encoded
// to JSON first, so struct tags decide field names.
func ValidateDocument(schemaName string, doc any) error {
	schemaContent, err := artifacts.FS.ReadFile(schemaName)
	if err != nil {
		return &SchemaLoadError{Schema: schemaName, Message: "embedded schema not found", Cause: err}
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for schema %s: %w", schemaName, err)
	}

	return validate(schemaName,
		gojsonschema.NewBytesLoader(schemaContent),
		gojsonschema.NewBytesLoader(encoded))
}

// ValidateJSONString validates raw JSON against a schema given as a string.
func ValidateJSONString(schemaContent, jsonContent string) error {
	return validate("(inline)",
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(jsonContent))
}

func validate(schemaName string, schemaLoader, documentLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{Schema: schemaName, Message: "schema or document could not be loaded", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	descs := result.Errors()
	verr := &ValidationError{Schema: schemaName, Total: len(descs)}
	for _, desc := range descs[:min(len(descs), maxReported)] {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}
