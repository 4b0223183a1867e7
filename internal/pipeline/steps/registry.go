// Package steps defines the pipeline stages, their dependencies and the
// order they run in.
package steps

import (
	"fmt"
	"sort"

	dbpkg "github.com/jonathan/jobrec-pipeline/internal/db"
)

// Stage names.
const (
	ValidateRaw     = "validate_raw"
	Clean           = "clean"
	Label           = "label"
	FilterPositives = "filter_positives"
	SampleNegatives = "sample_negatives"
	BuildDataset    = "build_dataset"
	BuildTraining   = "build_training"
	BuildRanking    = "build_ranking"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	ValidateRaw: {
		Name:         ValidateRaw,
		Category:     dbpkg.StepCategoryValidation,
		Dependencies: []string{},
	},
	Clean: {
		Name:         Clean,
		Category:     dbpkg.StepCategoryCleaning,
		Dependencies: []string{ValidateRaw},
	},
	Label: {
		Name:         Label,
		Category:     dbpkg.StepCategoryLabeling,
		Dependencies: []string{Clean},
	},
	FilterPositives: {
		Name:         FilterPositives,
		Category:     dbpkg.StepCategoryLabeling,
		Dependencies: []string{Label},
	},
	SampleNegatives: {
		Name:         SampleNegatives,
		Category:     dbpkg.StepCategorySampling,
		Dependencies: []string{FilterPositives},
	},
	BuildDataset: {
		Name:         BuildDataset,
		Category:     dbpkg.StepCategoryAssembly,
		Dependencies: []string{FilterPositives, SampleNegatives},
	},
	BuildTraining: {
		Name:         BuildTraining,
		Category:     dbpkg.StepCategoryAssembly,
		Dependencies: []string{BuildDataset},
	},
	BuildRanking: {
		Name:         BuildRanking,
		Category:     dbpkg.StepCategoryAssembly,
		Dependencies: []string{BuildDataset},
	},
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Order returns every registered step so that each appears after all of its
// dependencies. Steps that become ready together are ordered by name.
func Order() []string {
	return order(StepRegistry)
}

func order(registry map[string]StepDefinition) []string {
	indegree := make(map[string]int, len(registry))
	dependents := make(map[string][]string, len(registry))
	for name, def := range registry {
		indegree[name] += 0
		for _, dep := range def.Dependencies {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, n := range indegree {
		if n == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	out := make([]string, 0, len(registry))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		out = append(out, next)

		for _, d := range dependents[next] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
		sort.Strings(ready)
	}
	return out
}

// ValidateDependencies checks if all required dependencies for a step are completed
func ValidateDependencies(completed map[string]bool, stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	if len(missing) > 0 {
		return &DependencyError{
			Step:                stepName,
			MissingDependencies: missing,
		}
	}

	return nil
}

// GetAvailableSteps returns the steps not yet completed whose dependencies are met
func GetAvailableSteps(completed map[string]bool) []string {
	var available []string
	for _, stepName := range Order() {
		if completed[stepName] {
			continue
		}
		if ValidateDependencies(completed, stepName) == nil {
			available = append(available, stepName)
		}
	}
	return available
}

// GetBlockedSteps returns the steps not yet completed whose dependencies are unmet
func GetBlockedSteps(completed map[string]bool) []string {
	var blocked []string
	for _, stepName := range Order() {
		if completed[stepName] {
			continue
		}
		if ValidateDependencies(completed, stepName) != nil {
			blocked = append(blocked, stepName)
		}
	}
	return blocked
}
