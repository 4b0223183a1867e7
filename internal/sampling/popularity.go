package sampling

import (
	"sort"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// ComputePopularity counts labeled rows per job. Counts are raw; strategies
// that use them as weights normalize on their own.
func ComputePopularity(pairs []types.LabeledPair) map[string]int {
	popularity := make(map[string]int)
	for _, pair := range pairs {
		popularity[pair.JobID]++
	}
	return popularity
}

// JobCount is a job with its popularity count.
type JobCount struct {
	JobID string `json:"job_id"`
	Count int    `json:"count"`
}

// RankByPopularity lists jobs by count descending, then job id ascending.
func RankByPopularity(popularity map[string]int) []JobCount {
	ranked := make([]JobCount, 0, len(popularity))
	for jobID, count := range popularity {
		ranked = append(ranked, JobCount{JobID: jobID, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].JobID < ranked[j].JobID
	})
	return ranked
}
