package labeling

import (
	"errors"
	"fmt"

	"github.com/jonathan/jobrec-pipeline/internal/policy"
	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// Stats summarizes one labeling pass.
type Stats struct {
	Interactions int         `json:"interactions"`
	Mapped       int         `json:"mapped"`
	Dropped      int         `json:"dropped"`
	Conflicts    int         `json:"conflicts"`
	Pairs        int         `json:"pairs"`
	LabelCounts  map[int]int `json:"label_counts"`
}

// GenerateLabels maps every interaction through the policy, groups the
// surviving events by (user, job) and resolves each group to one label.
// Output order follows the first occurrence of each pair in the input.
func GenerateLabels(interactions []types.Interaction, p *policy.Policy) ([]types.LabeledPair, error) {
	rows, _, err := GenerateLabelsWithStats(interactions, p)
	return rows, err
}

// GenerateLabelsWithStats is GenerateLabels plus counters for reporting.
func GenerateLabelsWithStats(interactions []types.Interaction, p *policy.Policy) ([]types.LabeledPair, *Stats, error) {
	mapper := NewMapper(p)
	resolver := NewResolver(p)

	stats := &Stats{
		Interactions: len(interactions),
		LabelCounts:  make(map[int]int),
	}

	order := make([]types.PairKey, 0)
	groups := make(map[types.PairKey][]EventLabel)
	for _, interaction := range interactions {
		label, ok := mapper.MapEvent(interaction.EventType)
		if !ok {
			stats.Dropped++
			continue
		}
		stats.Mapped++

		key := interaction.Key()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], EventLabel{EventType: interaction.EventType, Label: label})
	}

	labeled := make([]types.LabeledPair, 0, len(order))
	for _, key := range order {
		events := groups[key]
		final, err := resolver.Resolve(events)
		if err != nil {
			var emptyErr *EmptyConflictSetError
			if errors.As(err, &emptyErr) {
				k := key
				emptyErr.Key = &k
			}
			return nil, nil, fmt.Errorf("failed to resolve labels: %w", err)
		}
		if distinctLabels(events) > 1 {
			stats.Conflicts++
		}

		labeled = append(labeled, types.LabeledPair{
			UserID: key.UserID,
			JobID:  key.JobID,
			Label:  final,
		})
		stats.LabelCounts[final]++
	}
	stats.Pairs = len(labeled)

	return labeled, stats, nil
}

// FilterPositives keeps the rows labeled positive. It fails when none remain,
// since a run without positives cannot produce a contrastive dataset.
func FilterPositives(rows []types.LabeledPair) ([]types.LabeledPair, error) {
	positives := make([]types.LabeledPair, 0, len(rows))
	for _, row := range rows {
		if row.Label == types.LabelPositive {
			positives = append(positives, row)
		}
	}
	if len(positives) == 0 {
		return nil, &NoPositivesError{Total: len(rows)}
	}
	return positives, nil
}

func distinctLabels(events []EventLabel) int {
	seen := make(map[int]struct{}, len(events))
	for _, ev := range events {
		seen[ev.Label] = struct{}{}
	}
	return len(seen)
}
