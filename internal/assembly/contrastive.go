package assembly

import (
	"fmt"
	"math/rand/v2"

	"github.com/jonathan/jobrec-pipeline/internal/seeded"
	"github.com/jonathan/jobrec-pipeline/internal/types"
)

// Sides named in InvariantViolation.
const (
	SidePositive = "positive"
	SideNegative = "negative"
)

// BuildContrastiveDataset validates labels and concatenates positives then
// negatives. With shuffle set the result is permuted by rng; the same seed and
// input always produce the same permutation. No deduplication happens here.
func BuildContrastiveDataset(positives, negatives []types.LabeledPair, rng *rand.Rand, shuffle bool) ([]types.LabeledPair, error) {
	for i, row := range positives {
		if row.Label != types.LabelPositive {
			return nil, &InvariantViolation{
				Side:    SidePositive,
				Index:   i,
				Row:     row,
				Message: fmt.Sprintf("positive sample must have label %d", types.LabelPositive),
			}
		}
	}
	for i, row := range negatives {
		if row.Label != types.LabelNegative {
			return nil, &InvariantViolation{
				Side:    SideNegative,
				Index:   i,
				Row:     row,
				Message: fmt.Sprintf("negative sample must have label %d", types.LabelNegative),
			}
		}
	}

	dataset := make([]types.LabeledPair, 0, len(positives)+len(negatives))
	dataset = append(dataset, positives...)
	dataset = append(dataset, negatives...)

	if shuffle {
		if rng == nil {
			return nil, fmt.Errorf("shuffle requested without a random generator")
		}
		rng.Shuffle(len(dataset), func(i, j int) {
			dataset[i], dataset[j] = dataset[j], dataset[i]
		})
	}

	return dataset, nil
}

// Assemble is BuildContrastiveDataset over a fresh generator seeded with seed.
func Assemble(positives, negatives []types.LabeledPair, seed int64, shuffle bool) ([]types.LabeledPair, error) {
	return BuildContrastiveDataset(positives, negatives, seeded.New(seed), shuffle)
}

// Summary counts the rows of an assembled dataset.
type Summary struct {
	Rows      int `json:"rows"`
	Positives int `json:"positives"`
	Negatives int `json:"negatives"`
	Users     int `json:"users"`
	Jobs      int `json:"jobs"`
}

// Summarize counts rows, labels and distinct ids in dataset.
func Summarize(dataset []types.LabeledPair) Summary {
	users := make(map[string]struct{})
	jobs := make(map[string]struct{})
	s := Summary{Rows: len(dataset)}
	for _, row := range dataset {
		switch row.Label {
		case types.LabelPositive:
			s.Positives++
		case types.LabelNegative:
			s.Negatives++
		}
		users[row.UserID] = struct{}{}
		jobs[row.JobID] = struct{}{}
	}
	s.Users = len(users)
	s.Jobs = len(jobs)
	return s
}
