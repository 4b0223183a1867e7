package types

// Label values produced for the contrastive dataset.
const (
	LabelNegative = 0
	LabelPositive = 1
)

// LabeledPair is a (user, job) pair with its supervision label. Labeled
// positives, sampled negatives and assembled dataset rows all share it.
type LabeledPair struct {
	UserID string `json:"user_id" csv:"user_id" parquet:"user_id" validate:"required"`
	JobID  string `json:"job_id" csv:"job_id" parquet:"job_id" validate:"required"`
	Label  int    `json:"label" csv:"label" parquet:"label"`
}

// Key returns the (user, job) primary key of the row.
func (p LabeledPair) Key() PairKey {
	return PairKey{UserID: p.UserID, JobID: p.JobID}
}

// RankingRecord is a labeled pair enriched with ranker cross features.
type RankingRecord struct {
	UserID            string  `json:"user_id" csv:"user_id" parquet:"user_id"`
	JobID             string  `json:"job_id" csv:"job_id" parquet:"job_id"`
	SkillOverlapScore float64 `json:"skill_overlap_score" csv:"skill_overlap_score" parquet:"skill_overlap_score"`
	ExperienceGap     int     `json:"experience_gap" csv:"experience_gap" parquet:"experience_gap"`
	Label             int     `json:"label" csv:"label" parquet:"label"`
}
