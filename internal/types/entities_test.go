//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteraction_Validation(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name        string
		interaction Interaction
		wantErr     bool
		errMsg      string
	}{
		{
			name:        "valid interaction",
			interaction: Interaction{UserID: "u1", JobID: "j1", EventType: "view"},
			wantErr:     false,
		},
		{
			name:        "missing user",
			interaction: Interaction{JobID: "j1", EventType: "view"},
			wantErr:     true,
			errMsg:      "UserID",
		},
		{
			name:        "missing event type",
			interaction: Interaction{UserID: "u1", JobID: "j1"},
			wantErr:     true,
			errMsg:      "EventType",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.interaction)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUser_Validation(t *testing.T) {
	validate := validator.New()

	valid := User{
		UserID:            "u1",
		PrimaryRoles:      []string{"backend engineer"},
		Skills:            []string{"go", "sql"},
		ExperienceLevel:   "mid",
		EducationLevel:    "bachelor",
		Location:          "Berlin",
		YearsOfExperience: 4,
	}
	assert.NoError(t, validate.Struct(valid))

	noSkills := valid
	noSkills.Skills = []string{}
	assert.Error(t, validate.Struct(noSkills))

	negativeYears := valid
	negativeYears.YearsOfExperience = -1
	assert.Error(t, validate.Struct(negativeYears))
}

func TestJob_OptionalFieldsOmitted(t *testing.T) {
	job := Job{
		JobID:        "j1",
		Title:        "Data Engineer",
		Description:  "Build pipelines",
		EmployerName: "Acme",
		Publisher:    "LinkedIn",
	}

	data, err := json.Marshal(job)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_id":"j1"`)
	assert.NotContains(t, string(data), "job_is_remote")
	assert.NotContains(t, string(data), "job_min_salary")
}

func TestLabeledPair_Key(t *testing.T) {
	a := LabeledPair{UserID: "u1", JobID: "j1", Label: LabelPositive}
	b := LabeledPair{UserID: "u1", JobID: "j1", Label: LabelNegative}
	c := Interaction{UserID: "u1", JobID: "j1", EventType: "apply"}

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), c.Key())
	assert.NotEqual(t, a.Key(), LabeledPair{UserID: "u1", JobID: "j2"}.Key())
}

func TestLabeledPair_JSONUnmarshaling(t *testing.T) {
	jsonInput := `[{"user_id": "u1", "job_id": "j1", "label": 1}, {"user_id": "u2", "job_id": "j3", "label": 0}]`

	var rows []LabeledPair
	require.NoError(t, json.Unmarshal([]byte(jsonInput), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, LabeledPair{UserID: "u1", JobID: "j1", Label: 1}, rows[0])
	assert.Equal(t, LabelNegative, rows[1].Label)
}
