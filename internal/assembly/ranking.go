package assembly

import (
	"fmt"
	"math/rand/v2"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// RankingRanges bounds the cross features attached to ranker rows.
type RankingRanges struct {
	SkillOverlap  [2]float64
	ExperienceGap [2]int
}

// BuildRankingRecords attaches seeded cross features to every labeled row.
// The features are placeholders until the feature store serves real
// skill-overlap and experience-gap values.
func BuildRankingRecords(rows []types.LabeledPair, rng *rand.Rand, ranges RankingRanges) ([]types.RankingRecord, error) {
	lo, hi := ranges.SkillOverlap[0], ranges.SkillOverlap[1]
	if lo > hi {
		return nil, fmt.Errorf("invalid skill overlap range [%v, %v]", lo, hi)
	}
	gapLo, gapHi := ranges.ExperienceGap[0], ranges.ExperienceGap[1]
	if gapLo > gapHi {
		return nil, fmt.Errorf("invalid experience gap range [%d, %d]", gapLo, gapHi)
	}
	if rng == nil {
		return nil, fmt.Errorf("random generator is required")
	}

	out := make([]types.RankingRecord, 0, len(rows))
	for i, row := range rows {
		if row.UserID == "" || row.JobID == "" {
			return nil, &InvariantViolation{Side: "ranking", Index: i, Row: row, Message: "user_id and job_id are required"}
		}
		out = append(out, types.RankingRecord{
			UserID:            row.UserID,
			JobID:             row.JobID,
			SkillOverlapScore: lo + rng.Float64()*(hi-lo),
			ExperienceGap:     gapLo + rng.IntN(gapHi-gapLo+1),
			Label:             row.Label,
		})
	}
	return out, nil
}
