package assembly

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// rowNamespace scopes the deterministic training row ids.
var rowNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("jobrec.training_row"))

// FeatureContract describes the shape every hydrated row must have.
type FeatureContract struct {
	UserEmbeddingDim int
	JobEmbeddingDim  int
	AllowedLabels    []int
}

// HydrationStats counts rows dropped during hydration.
type HydrationStats struct {
	Input       int `json:"input"`
	Hydrated    int `json:"hydrated"`
	MissingUser int `json:"missing_user"`
	MissingJob  int `json:"missing_job"`
}

// HydrateTrainingRows joins each labeled row with its user and job features.
// Rows whose user or job has no features are skipped and counted. Every
// emitted row must satisfy the contract and (user_id, job_id) must be unique.
func HydrateTrainingRows(rows []types.LabeledPair, users []types.UserFeatures, jobs []types.JobFeatures, contract FeatureContract) ([]types.TrainingRow, *HydrationStats, error) {
	userMap := make(map[string][]float32, len(users))
	for _, u := range users {
		userMap[u.UserID] = u.UserEmbedding
	}
	jobMap := make(map[string][]float32, len(jobs))
	for _, j := range jobs {
		jobMap[j.JobID] = j.JobEmbedding
	}

	allowed := make(map[int]struct{}, len(contract.AllowedLabels))
	for _, label := range contract.AllowedLabels {
		allowed[label] = struct{}{}
	}

	stats := &HydrationStats{Input: len(rows)}
	seen := make(map[types.PairKey]int, len(rows))
	out := make([]types.TrainingRow, 0, len(rows))

	for i, row := range rows {
		userEmbedding, ok := userMap[row.UserID]
		if !ok {
			stats.MissingUser++
			continue
		}
		jobEmbedding, ok := jobMap[row.JobID]
		if !ok {
			stats.MissingJob++
			continue
		}

		if len(userEmbedding) != contract.UserEmbeddingDim {
			return nil, nil, &InvariantViolation{Side: "training", Index: i, Row: row,
				Message: fmt.Sprintf("user_embedding has dimension %d, expected %d", len(userEmbedding), contract.UserEmbeddingDim)}
		}
		if len(jobEmbedding) != contract.JobEmbeddingDim {
			return nil, nil, &InvariantViolation{Side: "training", Index: i, Row: row,
				Message: fmt.Sprintf("job_embedding has dimension %d, expected %d", len(jobEmbedding), contract.JobEmbeddingDim)}
		}
		if _, ok := allowed[row.Label]; !ok {
			return nil, nil, &InvariantViolation{Side: "training", Index: i, Row: row,
				Message: fmt.Sprintf("label not in allowed set %v", contract.AllowedLabels)}
		}
		if first, dup := seen[row.Key()]; dup {
			return nil, nil, &InvariantViolation{Side: "training", Index: i, Row: row,
				Message: fmt.Sprintf("duplicate primary key, first seen at row %d", first)}
		}
		seen[row.Key()] = i

		out = append(out, types.TrainingRow{
			ID:            TrainingRowID(row.UserID, row.JobID),
			UserID:        row.UserID,
			JobID:         row.JobID,
			UserEmbedding: userEmbedding,
			JobEmbedding:  jobEmbedding,
			Label:         row.Label,
		})
	}
	stats.Hydrated = len(out)

	return out, stats, nil
}

// TrainingRowID derives a stable id from the row's primary key.
func TrainingRowID(userID, jobID string) string {
	return uuid.NewSHA1(rowNamespace, []byte(userID+"\x00"+jobID)).String()
}
