package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/jonathan/jobrec-pipeline/internal/db"
)

func TestStepRegistry(t *testing.T) {
	expectedSteps := []string{
		ValidateRaw, Clean, Label, FilterPositives,
		SampleNegatives, BuildDataset, BuildTraining, BuildRanking,
	}

	assert.Len(t, StepRegistry, len(expectedSteps))
	for _, stepName := range expectedSteps {
		def, ok := StepRegistry[stepName]
		require.True(t, ok, "Step %s should be in registry", stepName)
		assert.Equal(t, stepName, def.Name)
		assert.NotEmpty(t, def.Category)
		for _, dep := range def.Dependencies {
			_, ok := StepRegistry[dep]
			assert.True(t, ok, "dependency %s of %s should be registered", dep, stepName)
		}
	}
}

func TestStepRegistryCategories(t *testing.T) {
	categories := map[string][]string{
		dbpkg.StepCategoryValidation: {ValidateRaw},
		dbpkg.StepCategoryCleaning:   {Clean},
		dbpkg.StepCategoryLabeling:   {Label, FilterPositives},
		dbpkg.StepCategorySampling:   {SampleNegatives},
		dbpkg.StepCategoryAssembly:   {BuildDataset, BuildTraining, BuildRanking},
	}

	for category, stepNames := range categories {
		for _, stepName := range stepNames {
			def, ok := StepRegistry[stepName]
			require.True(t, ok)
			assert.Equal(t, category, def.Category, "Step %s should be in category %s", stepName, category)
		}
	}
}

func TestOrder(t *testing.T) {
	assert.Equal(t, []string{
		ValidateRaw, Clean, Label, FilterPositives, SampleNegatives,
		BuildDataset, BuildRanking, BuildTraining,
	}, Order())
}

func TestOrder_RespectsDependencies(t *testing.T) {
	registry := map[string]StepDefinition{
		"c": {Name: "c", Dependencies: []string{"a", "b"}},
		"b": {Name: "b", Dependencies: []string{"a"}},
		"a": {Name: "a"},
		"d": {Name: "d"},
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order(registry))
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{
		Step:                "test_step",
		MissingDependencies: []string{"dep1", "dep2"},
	}

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependencies")
	assert.Equal(t, "test_step", err.Step)
	assert.Equal(t, []string{"dep1", "dep2"}, err.MissingDependencies)
}

func TestValidateDependencies(t *testing.T) {
	err := ValidateDependencies(nil, "unknown_step")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")

	assert.NoError(t, ValidateDependencies(nil, ValidateRaw))

	err = ValidateDependencies(map[string]bool{FilterPositives: true}, BuildDataset)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{SampleNegatives}, depErr.MissingDependencies)

	assert.NoError(t, ValidateDependencies(map[string]bool{FilterPositives: true, SampleNegatives: true}, BuildDataset))
}

func TestAvailableAndBlockedSteps(t *testing.T) {
	completed := map[string]bool{ValidateRaw: true, Clean: true}

	assert.Equal(t, []string{Label}, GetAvailableSteps(completed))
	assert.Equal(t, []string{FilterPositives, SampleNegatives, BuildDataset, BuildRanking, BuildTraining}, GetBlockedSteps(completed))

	all := make(map[string]bool)
	for _, s := range Order() {
		all[s] = true
	}
	assert.Empty(t, GetAvailableSteps(all))
	assert.Empty(t, GetBlockedSteps(all))
}
