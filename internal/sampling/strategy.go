package sampling

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// Strategy picks k distinct job ids out of candidates.
// Implementations must be deterministic for a given generator state and
// candidate order, and must return min(k, len(candidates)) ids.
type Strategy interface {
	Name() string
	Choose(rng *rand.Rand, candidates []string, k int) []string
}

// Strategy names accepted by StrategyByName.
const (
	StrategyUniform    = "uniform"
	StrategyPopularity = "popularity"
)

// Uniform samples without replacement, every candidate equally likely.
type Uniform struct{}

// Name implements Strategy.
func (Uniform) Name() string { return StrategyUniform }

// Choose runs a partial Fisher–Yates shuffle over a copy of candidates.
func (Uniform) Choose(rng *rand.Rand, candidates []string, k int) []string {
	n := len(candidates)
	if k > n {
		k = n
	}
	if k <= 0 {
		return []string{}
	}

	pool := make([]string, n)
	copy(pool, candidates)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// PopularityWeighted samples without replacement with probability
// proportional to count+Smoothing. Smoothing keeps jobs with no positives
// reachable; with Smoothing 0 such jobs are only picked once every weighted
// job is taken.
type PopularityWeighted struct {
	Popularity map[string]int
	Smoothing  float64
}

// Name implements Strategy.
func (PopularityWeighted) Name() string { return StrategyPopularity }

// Choose uses Efraimidis–Spirakis keys u^(1/w) and keeps the k largest.
func (s PopularityWeighted) Choose(rng *rand.Rand, candidates []string, k int) []string {
	n := len(candidates)
	if k > n {
		k = n
	}
	if k <= 0 {
		return []string{}
	}

	type keyed struct {
		jobID string
		key   float64
		index int
	}
	keys := make([]keyed, n)
	for i, jobID := range candidates {
		// Draw for every candidate so the stream position does not depend on weights.
		u := rng.Float64()
		w := float64(s.Popularity[jobID]) + s.Smoothing
		key := -1.0
		if w > 0 {
			key = math.Pow(u, 1/w)
		}
		keys[i] = keyed{jobID: jobID, key: key, index: i}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].key != keys[j].key {
			return keys[i].key > keys[j].key
		}
		return keys[i].index < keys[j].index
	})

	chosen := make([]string, k)
	for i := 0; i < k; i++ {
		chosen[i] = keys[i].jobID
	}
	return chosen
}

// StrategyByName builds a strategy from configuration. popularity is only
// consulted by the popularity strategy.
func StrategyByName(name string, popularity map[string]int, smoothing float64) (Strategy, error) {
	switch name {
	case "", StrategyUniform:
		return Uniform{}, nil
	case StrategyPopularity:
		if smoothing < 0 {
			return nil, &SamplingInputError{Message: fmt.Sprintf("popularity smoothing must be non-negative, got %v", smoothing)}
		}
		return PopularityWeighted{Popularity: popularity, Smoothing: smoothing}, nil
	default:
		return nil, &SamplingInputError{Message: fmt.Sprintf("unknown sampling strategy %q", name)}
	}
}
