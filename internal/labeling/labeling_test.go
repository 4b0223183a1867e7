package labeling

import (
	"errors"
	"testing"

	"github.com/jonathan/jobrec-pipeline/internal/policy"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPolicy = `
version: test
label_map:
  view: 0
  click: 1
  apply: 1
  dismiss: 0
ignored_events: [bookmark]
priority:
  view: 1
  click: 2
  apply: 3
`

func newPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.Parse([]byte(testPolicy))
	require.NoError(t, err)
	return p
}

func TestMapper_MapEvent(t *testing.T) {
	mapper := NewMapper(newPolicy(t))

	tests := []struct {
		event     string
		wantLabel int
		wantOK    bool
	}{
		{event: "view", wantLabel: 0, wantOK: true},
		{event: "click", wantLabel: 1, wantOK: true},
		{event: "apply", wantLabel: 1, wantOK: true},
		{event: "bookmark", wantOK: false},
		{event: "unknown", wantOK: false},
		{event: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			label, ok := mapper.MapEvent(tt.event)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantLabel, label)
			}
		})
	}
}

func TestMapper_IgnoredWinsOverLabelMap(t *testing.T) {
	p, err := policy.New("v", map[string]int{"bookmark": 1}, []string{"bookmark"}, nil)
	require.NoError(t, err)

	_, ok := NewMapper(p).MapEvent("bookmark")
	assert.False(t, ok)
}

func TestResolver_HighestPriorityWins(t *testing.T) {
	resolver := NewResolver(newPolicy(t))

	label, err := resolver.Resolve([]EventLabel{
		{EventType: "view", Label: 0},
		{EventType: "click", Label: 1},
		{EventType: "apply", Label: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestResolver_PriorityBeatsRecency(t *testing.T) {
	resolver := NewResolver(newPolicy(t))

	label, err := resolver.Resolve([]EventLabel{
		{EventType: "click", Label: 1},
		{EventType: "view", Label: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestResolver_TiesKeepFirstSeen(t *testing.T) {
	p, err := policy.New("v", map[string]int{"a": 7, "b": 9}, nil, map[string]int{"a": 2, "b": 2})
	require.NoError(t, err)
	resolver := NewResolver(p)

	label, err := resolver.Resolve([]EventLabel{{EventType: "b", Label: 9}, {EventType: "a", Label: 7}})
	require.NoError(t, err)
	assert.Equal(t, 9, label)

	label, err = resolver.Resolve([]EventLabel{{EventType: "a", Label: 7}, {EventType: "b", Label: 9}})
	require.NoError(t, err)
	assert.Equal(t, 7, label)
}

func TestResolver_UnrankedLosesToRanked(t *testing.T) {
	resolver := NewResolver(newPolicy(t))

	label, err := resolver.Resolve([]EventLabel{
		{EventType: "dismiss", Label: 0},
		{EventType: "view", Label: 0},
		{EventType: "dismiss", Label: 0},
		{EventType: "click", Label: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestResolver_ExplicitNegativeSurvives(t *testing.T) {
	p, err := policy.New("v", map[string]int{"click": 1, "report": 0}, nil, map[string]int{"click": 1, "report": 10})
	require.NoError(t, err)

	label, err := NewResolver(p).Resolve([]EventLabel{{EventType: "click", Label: 1}, {EventType: "report", Label: 0}})
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestResolver_EmptyConflictSet(t *testing.T) {
	_, err := NewResolver(newPolicy(t)).Resolve(nil)

	var emptyErr *EmptyConflictSetError
	require.True(t, errors.As(err, &emptyErr))
	assert.Nil(t, emptyErr.Key)
}

func TestGenerateLabels_EndToEndScenario(t *testing.T) {
	interactions := []types.Interaction{
		{UserID: "u1", JobID: "j1", EventType: "view"},
		{UserID: "u1", JobID: "j1", EventType: "apply"},
		{UserID: "u2", JobID: "j2", EventType: "click"},
	}

	labeled, err := GenerateLabels(interactions, newPolicy(t))
	require.NoError(t, err)
	assert.Equal(t, []types.LabeledPair{
		{UserID: "u1", JobID: "j1", Label: 1},
		{UserID: "u2", JobID: "j2", Label: 1},
	}, labeled)
}

func TestGenerateLabels_DropsUnmappedAndPreservesFirstOccurrence(t *testing.T) {
	interactions := []types.Interaction{
		{UserID: "u3", JobID: "j9", EventType: "bookmark"},
		{UserID: "u2", JobID: "j2", EventType: "view"},
		{UserID: "u1", JobID: "j1", EventType: "unknown"},
		{UserID: "u1", JobID: "j1", EventType: "click"},
		{UserID: "u2", JobID: "j2", EventType: "click"},
	}

	labeled, stats, err := GenerateLabelsWithStats(interactions, newPolicy(t))
	require.NoError(t, err)

	require.Len(t, labeled, 2)
	assert.Equal(t, types.PairKey{UserID: "u2", JobID: "j2"}, labeled[0].Key())
	assert.Equal(t, types.PairKey{UserID: "u1", JobID: "j1"}, labeled[1].Key())
	for _, row := range labeled {
		assert.NotEqual(t, "j9", row.JobID, "ignored events must never form a pair")
	}

	assert.Equal(t, 5, stats.Interactions)
	assert.Equal(t, 3, stats.Mapped)
	assert.Equal(t, 2, stats.Dropped)
	assert.Equal(t, 1, stats.Conflicts)
	assert.Equal(t, 2, stats.Pairs)
	assert.Equal(t, 2, stats.LabelCounts[1])
}

func TestGenerateLabels_LabelClosure(t *testing.T) {
	p := newPolicy(t)
	interactions := []types.Interaction{
		{UserID: "u1", JobID: "j1", EventType: "view"},
		{UserID: "u1", JobID: "j2", EventType: "dismiss"},
		{UserID: "u2", JobID: "j1", EventType: "apply"},
		{UserID: "u2", JobID: "j3", EventType: "mystery"},
	}

	labeled, err := GenerateLabels(interactions, p)
	require.NoError(t, err)

	allowed := p.LabelValues()
	for _, row := range labeled {
		assert.Contains(t, allowed, row.Label)
	}
}

func TestGenerateLabels_EmptyInput(t *testing.T) {
	labeled, err := GenerateLabels(nil, newPolicy(t))
	require.NoError(t, err)
	assert.Empty(t, labeled)
}

func TestFilterPositives(t *testing.T) {
	rows := []types.LabeledPair{
		{UserID: "u1", JobID: "j1", Label: 0},
		{UserID: "u1", JobID: "j2", Label: 1},
		{UserID: "u2", JobID: "j1", Label: 1},
	}

	positives, err := FilterPositives(rows)
	require.NoError(t, err)
	assert.Len(t, positives, 2)
	for _, row := range positives {
		assert.Equal(t, types.LabelPositive, row.Label)
	}
}

func TestFilterPositives_NoneFound(t *testing.T) {
	_, err := FilterPositives([]types.LabeledPair{{UserID: "u1", JobID: "j1", Label: 0}})

	var noPos *NoPositivesError
	require.ErrorAs(t, err, &noPos)
	assert.Equal(t, 1, noPos.Total)
}
