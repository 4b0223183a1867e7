// Package cleaning applies deterministic normalization to validated records.
package cleaning

import (
	"strings"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// Stats counts what CleanInteractions changed.
type Stats struct {
	Input      int `json:"input"`
	Output     int `json:"output"`
	Duplicates int `json:"duplicates"`
	Normalized int `json:"normalized"`
	TrimmedIDs int `json:"trimmed_ids"`
}

// NormalizeEventType trims surrounding whitespace and lowercases.
func NormalizeEventType(eventType string) string {
	return strings.ToLower(strings.TrimSpace(eventType))
}

// NormalizeID trims surrounding whitespace from a join key. Case is kept.
func NormalizeID(id string) string {
	return strings.TrimSpace(id)
}

// CleanInteractions normalizes event types, trims every id with NormalizeID
// and drops repeated interaction ids, keeping the first occurrence. Rows
// without an id are never treated as duplicates.
func CleanInteractions(interactions []types.Interaction) ([]types.Interaction, Stats) {
	stats := Stats{Input: len(interactions)}
	seen := make(map[string]struct{}, len(interactions))
	out := make([]types.Interaction, 0, len(interactions))

	for _, it := range interactions {
		userID, jobID, interactionID := NormalizeID(it.UserID), NormalizeID(it.JobID), NormalizeID(it.InteractionID)
		if userID != it.UserID || jobID != it.JobID || interactionID != it.InteractionID {
			stats.TrimmedIDs++
		}
		it.UserID, it.JobID, it.InteractionID = userID, jobID, interactionID

		if it.InteractionID != "" {
			if _, dup := seen[it.InteractionID]; dup {
				stats.Duplicates++
				continue
			}
			seen[it.InteractionID] = struct{}{}
		}
		normalized := NormalizeEventType(it.EventType)
		if normalized != it.EventType {
			stats.Normalized++
		}
		it.EventType = normalized
		out = append(out, it)
	}
	stats.Output = len(out)
	return out, stats
}
