package sampling

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/jonathan/jobrec-pipeline/internal/seeded"
	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// Sampler draws negatives for every user with at least one positive.
type Sampler struct {
	// Ratio is the number of negatives requested per positive.
	Ratio int
	// Strategy picks candidates; nil means Uniform.
	Strategy Strategy
}

// UserSample records how many negatives one user received.
type UserSample struct {
	UserID     string `json:"user_id"`
	Positives  int    `json:"positives"`
	Candidates int    `json:"candidates"`
	Negatives  int    `json:"negatives"`
}

// Sample returns {user, job, 0} rows. For each user the candidates are the
// job universe minus that user's positive jobs, and the user receives
// min(len(candidates), positives*Ratio) of them. Users are processed in the
// order they first appear in positives and share one generator stream.
func (s *Sampler) Sample(positives []types.LabeledPair, allJobIDs []string, rng *rand.Rand) ([]types.LabeledPair, error) {
	negatives, _, err := s.SampleWithReport(positives, allJobIDs, rng)
	return negatives, err
}

// SampleWithReport is Sample plus a per-user breakdown.
func (s *Sampler) SampleWithReport(positives []types.LabeledPair, allJobIDs []string, rng *rand.Rand) ([]types.LabeledPair, []UserSample, error) {
	if s.Ratio < 0 {
		return nil, nil, &SamplingInputError{Message: fmt.Sprintf("ratio must be non-negative, got %d", s.Ratio)}
	}
	universe, err := normalizeUniverse(allJobIDs)
	if err != nil {
		return nil, nil, err
	}
	if rng == nil {
		return nil, nil, &SamplingInputError{Message: "random generator is required"}
	}
	strategy := s.Strategy
	if strategy == nil {
		strategy = Uniform{}
	}

	users := make([]string, 0)
	userPosJobs := make(map[string]map[string]struct{})
	for _, row := range positives {
		set, ok := userPosJobs[row.UserID]
		if !ok {
			set = make(map[string]struct{})
			userPosJobs[row.UserID] = set
			users = append(users, row.UserID)
		}
		set[row.JobID] = struct{}{}
	}

	negatives := make([]types.LabeledPair, 0)
	report := make([]UserSample, 0, len(users))
	for _, userID := range users {
		posJobs := userPosJobs[userID]

		candidates := make([]string, 0, len(universe))
		for _, jobID := range universe {
			if _, isPositive := posJobs[jobID]; !isPositive {
				candidates = append(candidates, jobID)
			}
		}

		numNegatives := min(len(candidates), len(posJobs)*s.Ratio)
		sampled := strategy.Choose(rng, candidates, numNegatives)
		for _, jobID := range sampled {
			negatives = append(negatives, types.LabeledPair{
				UserID: userID,
				JobID:  jobID,
				Label:  types.LabelNegative,
			})
		}

		report = append(report, UserSample{
			UserID:     userID,
			Positives:  len(posJobs),
			Candidates: len(candidates),
			Negatives:  len(sampled),
		})
	}

	return negatives, report, nil
}

// SampleNegatives runs a uniform Sampler over a fresh generator seeded with seed.
func SampleNegatives(positives []types.LabeledPair, allJobIDs []string, ratio int, seed int64) ([]types.LabeledPair, error) {
	s := &Sampler{Ratio: ratio, Strategy: Uniform{}}
	return s.Sample(positives, allJobIDs, seeded.New(seed))
}

// JobUniverse extracts the job id list from job records.
func JobUniverse(jobs []types.Job) ([]string, error) {
	ids := make([]string, 0, len(jobs))
	for i, job := range jobs {
		if strings.TrimSpace(job.JobID) == "" {
			return nil, &SamplingInputError{Message: fmt.Sprintf("job at index %d has an empty job_id", i)}
		}
		ids = append(ids, job.JobID)
	}
	return ids, nil
}

// normalizeUniverse rejects empty ids and drops duplicates, keeping the first
// occurrence so candidate order stays tied to the input order.
func normalizeUniverse(allJobIDs []string) ([]string, error) {
	seen := make(map[string]struct{}, len(allJobIDs))
	universe := make([]string, 0, len(allJobIDs))
	for i, jobID := range allJobIDs {
		if strings.TrimSpace(jobID) == "" {
			return nil, &SamplingInputError{Message: fmt.Sprintf("all_job_ids[%d] is empty", i)}
		}
		if _, dup := seen[jobID]; dup {
			continue
		}
		seen[jobID] = struct{}{}
		universe = append(universe, jobID)
	}
	return universe, nil
}
