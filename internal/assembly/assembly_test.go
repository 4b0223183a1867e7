package assembly

import (
	"errors"
	"testing"

	"github.com/jonathan/jobrec-pipeline/internal/seeded"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	positives = []types.LabeledPair{
		{UserID: "u1", JobID: "j1", Label: 1},
		{UserID: "u2", JobID: "j2", Label: 1},
	}
	negatives = []types.LabeledPair{
		{UserID: "u1", JobID: "j3", Label: 0},
		{UserID: "u2", JobID: "j1", Label: 0},
	}
)

func TestBuildContrastiveDataset_NoShufflePreservesOrder(t *testing.T) {
	dataset, err := BuildContrastiveDataset(positives, negatives, nil, false)
	require.NoError(t, err)
	assert.Equal(t, append(append([]types.LabeledPair{}, positives...), negatives...), dataset)
}

func TestBuildContrastiveDataset_ShuffleDeterministic(t *testing.T) {
	first, err := Assemble(positives, negatives, 42, true)
	require.NoError(t, err)
	second, err := Assemble(positives, negatives, 42, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.ElementsMatch(t, append(append([]types.LabeledPair{}, positives...), negatives...), first)
}

func TestBuildContrastiveDataset_DoesNotMutateInputs(t *testing.T) {
	pos := append([]types.LabeledPair{}, positives...)
	_, err := Assemble(pos, negatives, 3, true)
	require.NoError(t, err)
	assert.Equal(t, positives, pos)
}

func TestBuildContrastiveDataset_PositiveInvariant(t *testing.T) {
	bad := []types.LabeledPair{{UserID: "u1", JobID: "j1", Label: 0}}

	dataset, err := BuildContrastiveDataset(bad, nil, seeded.New(1), true)
	assert.Nil(t, dataset)

	var violation *InvariantViolation
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, SidePositive, violation.Side)
	assert.Equal(t, 0, violation.Index)
	assert.Equal(t, "u1", violation.Row.UserID)
	assert.Contains(t, err.Error(), "positive sample must have label 1")
}

func TestBuildContrastiveDataset_NegativeInvariant(t *testing.T) {
	bad := []types.LabeledPair{{UserID: "u1", JobID: "j3", Label: 0}, {UserID: "u1", JobID: "j4", Label: 1}}

	dataset, err := BuildContrastiveDataset(positives, bad, seeded.New(1), false)
	assert.Nil(t, dataset)

	var violation *InvariantViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, SideNegative, violation.Side)
	assert.Equal(t, 1, violation.Index)
}

func TestBuildContrastiveDataset_ShuffleNeedsGenerator(t *testing.T) {
	_, err := BuildContrastiveDataset(positives, negatives, nil, true)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	dataset, err := Assemble(positives, negatives, 1, false)
	require.NoError(t, err)

	assert.Equal(t, Summary{Rows: 4, Positives: 2, Negatives: 2, Users: 2, Jobs: 3}, Summarize(dataset))
}

func TestHydrateTrainingRows(t *testing.T) {
	rows := []types.LabeledPair{
		{UserID: "u1", JobID: "j1", Label: 1},
		{UserID: "u1", JobID: "j2", Label: 0},
		{UserID: "ghost", JobID: "j1", Label: 1},
		{UserID: "u1", JobID: "j404", Label: 0},
	}
	users := []types.UserFeatures{{UserID: "u1", UserEmbedding: []float32{0.1, 0.2}}}
	jobs := []types.JobFeatures{
		{JobID: "j1", JobEmbedding: []float32{1, 2, 3}},
		{JobID: "j2", JobEmbedding: []float32{4, 5, 6}},
	}
	contract := FeatureContract{UserEmbeddingDim: 2, JobEmbeddingDim: 3, AllowedLabels: []int{0, 1}}

	hydrated, stats, err := HydrateTrainingRows(rows, users, jobs, contract)
	require.NoError(t, err)

	require.Len(t, hydrated, 2)
	assert.Equal(t, &HydrationStats{Input: 4, Hydrated: 2, MissingUser: 1, MissingJob: 1}, stats)
	assert.Equal(t, []float32{4, 5, 6}, hydrated[1].JobEmbedding)
	assert.Equal(t, TrainingRowID("u1", "j1"), hydrated[0].ID)
	assert.NotEqual(t, hydrated[0].ID, hydrated[1].ID)
}

func TestHydrateTrainingRows_ContractViolations(t *testing.T) {
	users := []types.UserFeatures{{UserID: "u1", UserEmbedding: []float32{0.1, 0.2}}}
	jobs := []types.JobFeatures{{JobID: "j1", JobEmbedding: []float32{1, 2, 3}}}

	tests := []struct {
		name     string
		rows     []types.LabeledPair
		contract FeatureContract
		errMsg   string
	}{
		{
			name:     "user dimension",
			rows:     []types.LabeledPair{{UserID: "u1", JobID: "j1", Label: 1}},
			contract: FeatureContract{UserEmbeddingDim: 4, JobEmbeddingDim: 3, AllowedLabels: []int{0, 1}},
			errMsg:   "user_embedding has dimension 2, expected 4",
		},
		{
			name:     "job dimension",
			rows:     []types.LabeledPair{{UserID: "u1", JobID: "j1", Label: 1}},
			contract: FeatureContract{UserEmbeddingDim: 2, JobEmbeddingDim: 8, AllowedLabels: []int{0, 1}},
			errMsg:   "job_embedding has dimension 3, expected 8",
		},
		{
			name:     "label not allowed",
			rows:     []types.LabeledPair{{UserID: "u1", JobID: "j1", Label: 2}},
			contract: FeatureContract{UserEmbeddingDim: 2, JobEmbeddingDim: 3, AllowedLabels: []int{0, 1}},
			errMsg:   "label not in allowed set",
		},
		{
			name: "duplicate key",
			rows: []types.LabeledPair{
				{UserID: "u1", JobID: "j1", Label: 1},
				{UserID: "u1", JobID: "j1", Label: 0},
			},
			contract: FeatureContract{UserEmbeddingDim: 2, JobEmbeddingDim: 3, AllowedLabels: []int{0, 1}},
			errMsg:   "duplicate primary key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hydrated, stats, err := HydrateTrainingRows(tt.rows, users, jobs, tt.contract)
			assert.Nil(t, hydrated)
			assert.Nil(t, stats)

			var violation *InvariantViolation
			require.ErrorAs(t, err, &violation)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBuildRankingRecords(t *testing.T) {
	ranges := RankingRanges{SkillOverlap: [2]float64{0.2, 0.6}, ExperienceGap: [2]int{-2, 3}}
	rows := append(append([]types.LabeledPair{}, positives...), negatives...)

	first, err := BuildRankingRecords(rows, seeded.New(10), ranges)
	require.NoError(t, err)
	second, err := BuildRankingRecords(rows, seeded.New(10), ranges)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first, len(rows))
	for i, rec := range first {
		assert.Equal(t, rows[i].UserID, rec.UserID)
		assert.Equal(t, rows[i].Label, rec.Label)
		assert.GreaterOrEqual(t, rec.SkillOverlapScore, 0.2)
		assert.Less(t, rec.SkillOverlapScore, 0.6)
		assert.GreaterOrEqual(t, rec.ExperienceGap, -2)
		assert.LessOrEqual(t, rec.ExperienceGap, 3)
	}
}

func TestBuildRankingRecords_InvalidInput(t *testing.T) {
	_, err := BuildRankingRecords(positives, seeded.New(1), RankingRanges{SkillOverlap: [2]float64{1, 0}})
	assert.Error(t, err)

	_, err = BuildRankingRecords(positives, seeded.New(1), RankingRanges{ExperienceGap: [2]int{3, -3}})
	assert.Error(t, err)

	_, err = BuildRankingRecords([]types.LabeledPair{{JobID: "j1"}}, seeded.New(1), RankingRanges{})
	var violation *InvariantViolation
	require.ErrorAs(t, err, &violation)
}
