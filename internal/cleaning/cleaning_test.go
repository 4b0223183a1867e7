package cleaning

import (
	"testing"

	"github.com/jonathan/jobrec-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEventType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"apply", "apply"},
		{"  Apply ", "apply"},
		{"SAVE\n", "save"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEventType(tt.in), "input %q", tt.in)
	}
}

func TestCleanInteractions(t *testing.T) {
	in := []types.Interaction{
		{InteractionID: "1", UserID: "u1", JobID: "j1", EventType: " View"},
		{InteractionID: "2", UserID: "u1", JobID: "j2", EventType: "apply"},
		{InteractionID: "1", UserID: "u9", JobID: "j9", EventType: "save"},
		{UserID: "u2", JobID: "j1", EventType: "VIEW"},
		{UserID: "u2", JobID: "j1", EventType: "view"},
	}

	out, stats := CleanInteractions(in)

	assert.Equal(t, []types.Interaction{
		{InteractionID: "1", UserID: "u1", JobID: "j1", EventType: "view"},
		{InteractionID: "2", UserID: "u1", JobID: "j2", EventType: "apply"},
		{UserID: "u2", JobID: "j1", EventType: "view"},
		{UserID: "u2", JobID: "j1", EventType: "view"},
	}, out)
	assert.Equal(t, Stats{Input: 5, Output: 4, Duplicates: 1, Normalized: 2}, stats)
	assert.Equal(t, " View", in[0].EventType)
}

func TestCleanInteractions_TrimsIDs(t *testing.T) {
	in := []types.Interaction{
		{InteractionID: " 1", UserID: "u1 ", JobID: " j1 ", EventType: "apply"},
		{InteractionID: "1", UserID: "u1", JobID: "j1", EventType: "view"},
		{UserID: "u2", JobID: "J2", EventType: "save"},
	}

	out, stats := CleanInteractions(in)

	assert.Equal(t, []types.Interaction{
		{InteractionID: "1", UserID: "u1", JobID: "j1", EventType: "apply"},
		{UserID: "u2", JobID: "J2", EventType: "save"},
	}, out)
	assert.Equal(t, 1, stats.TrimmedIDs)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, " j1 ", in[0].JobID)
}

func TestNormalizeEmploymentType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Full-Time", "FULL_TIME"},
		{" full time ", "FULL_TIME"},
		{"FULLTIME", "FULL_TIME"},
		{"FULL_TIME", "FULL_TIME"},
		{"part-time", "PART_TIME"},
		{"CONTRACTOR", "CONTRACT"},
		{"Internship", "INTERN"},
		{"temporary", "TEMP"},
		{"freelance", UnknownEmploymentType},
		{"", UnknownEmploymentType},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmploymentType(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "  Build   services\n in Go ", "Build services in Go"},
		{"tags become separators", "<p>Build services</p><ul><li>Go</li><li>SQL</li></ul>", "Build services Go SQL"},
		{"line breaks", "first<br>second", "first second"},
		{"scripts dropped", "<div>Role</div><script>track()</script>", "Role"},
		{"entities decoded", "R&amp;D team", "R&D team"},
		{"bare angle bracket", "salary < 100k", "salary < 100k"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDescription(tt.in))
		})
	}
}

func TestNormalizeSalaryRange(t *testing.T) {
	low, high := 50000.0, 90000.0

	minS, maxS, swapped := NormalizeSalaryRange(&high, &low)
	assert.True(t, swapped)
	assert.Equal(t, low, *minS)
	assert.Equal(t, high, *maxS)

	minS, maxS, swapped = NormalizeSalaryRange(&low, nil)
	assert.False(t, swapped)
	assert.Equal(t, low, *minS)
	assert.Nil(t, maxS)
}

func TestCleanJobs(t *testing.T) {
	low, high := 50000.0, 90000.0
	remote := true
	in := []types.Job{
		{
			JobID:          " j1 ",
			Title:          "  Senior Go Engineer ",
			Description:    "<p>Build  <b>APIs</b></p>",
			EmployerName:   "ACME Corp",
			Publisher:      "LinkedIn",
			EmploymentType: "Full-time",
			City:           " Berlin",
			IsRemote:       &remote,
			MinSalary:      &high,
			MaxSalary:      &low,
		},
		{
			JobID:        "j2",
			Title:        "Analyst",
			Description:  "Numbers",
			EmployerName: "Beta",
			Publisher:    "Board",
		},
	}

	out, stats := CleanJobs(in)

	require.Len(t, out, 2)
	assert.Equal(t, "j1", out[0].JobID)
	assert.Equal(t, "senior go engineer", out[0].Title)
	assert.Equal(t, "Build APIs", out[0].Description)
	assert.Equal(t, "acme corp", out[0].EmployerName)
	assert.Equal(t, "linkedin", out[0].Publisher)
	assert.Equal(t, "FULL_TIME", out[0].EmploymentType)
	assert.Equal(t, "berlin", out[0].City)
	assert.True(t, *out[0].IsRemote)
	assert.Equal(t, low, *out[0].MinSalary)
	assert.Equal(t, high, *out[0].MaxSalary)

	assert.Equal(t, UnknownEmploymentType, out[1].EmploymentType)
	require.NotNil(t, out[1].IsRemote)
	assert.False(t, *out[1].IsRemote)
	assert.Nil(t, out[1].MinSalary)

	assert.Equal(t, JobStats{Input: 2, UnknownEmploymentType: 1, SwappedSalaryRanges: 1, StrippedMarkup: 1}, stats)
	assert.Equal(t, " j1 ", in[0].JobID)
	assert.Nil(t, in[1].IsRemote)
}

func TestNormalizeList(t *testing.T) {
	out, dropped := NormalizeList([]string{" Go", "SQL", "go", "", "  ", "Kubernetes"})
	assert.Equal(t, []string{"go", "sql", "kubernetes"}, out)
	assert.Equal(t, 3, dropped)

	out, dropped = NormalizeList(nil)
	assert.Empty(t, out)
	assert.Zero(t, dropped)
}

func TestCleanUsers(t *testing.T) {
	in := []types.User{{
		UserID:            "u1 ",
		PrimaryRoles:      []string{"Backend Engineer", "backend engineer "},
		Skills:            []string{"Go", " PostgreSQL", "go"},
		ExperienceLevel:   " Senior",
		EducationLevel:    "Bachelors",
		Location:          "  New   York ",
		YearsOfExperience: 7,
	}}

	out, stats := CleanUsers(in)

	assert.Equal(t, []types.User{{
		UserID:            "u1",
		PrimaryRoles:      []string{"backend engineer"},
		Skills:            []string{"go", "postgresql"},
		ExperienceLevel:   "senior",
		EducationLevel:    "bachelors",
		Location:          "new york",
		YearsOfExperience: 7,
	}}, out)
	assert.Equal(t, UserStats{Input: 1, DroppedItems: 2}, stats)
	assert.Equal(t, "Go", in[0].Skills[0])
}
