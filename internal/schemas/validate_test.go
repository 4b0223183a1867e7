package schemas

import (
	"fmt"
	"strings"
	"testing"

	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pairSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["user_id", "label"],
	"properties": {
		"user_id": {"type": "string"},
		"label": {"type": "integer"}
	}
}`

type pairRow struct {
	UserID string `json:"user_id"`
	JobID  string `json:"job_id"`
	Label  int    `json:"label"`
}

func TestValidateJSONString(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{name: "valid", doc: `{"user_id": "u1", "label": 1}`},
		{name: "missing field", doc: `{"user_id": "u1"}`, wantField: "(root)"},
		{name: "wrong type", doc: `{"user_id": "u1", "label": "yes"}`, wantField: "label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONString(pairSchema, tt.doc)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Errors[0].Field)
			assert.Equal(t, 1, validationErr.Total)
		})
	}
}

func TestValidateJSONString_MalformedSchema(t *testing.T) {
	err := ValidateJSONString(`{ invalid`, `{}`)
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, loadErr.Error(), "failed to load schema")
}

func TestValidateDocument_LabeledPairs(t *testing.T) {
	err := ValidateDocument(artifacts.LabeledPairs, []pairRow{{UserID: "u1", JobID: "j1", Label: 1}})
	assert.NoError(t, err)

	err = ValidateDocument(artifacts.LabeledPairs, []pairRow{{UserID: "", JobID: "j1", Label: 1}})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, artifacts.LabeledPairs, validationErr.Schema)
	assert.Contains(t, validationErr.Error(), "user_id")
}

func TestValidateDocument_CapsReportedViolations(t *testing.T) {
	rows := make([]pairRow, 50)
	for i := range rows {
		rows[i] = pairRow{UserID: "", JobID: fmt.Sprintf("j%d", i), Label: 1}
	}

	err := ValidateDocument(artifacts.LabeledPairs, rows)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, maxReported)
	assert.GreaterOrEqual(t, validationErr.Total, 50)
	assert.True(t, strings.Contains(validationErr.Error(), "more"))
}

func TestValidateDocument_UnknownSchema(t *testing.T) {
	err := ValidateDocument("nope.schema.json", map[string]any{})
	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
}
