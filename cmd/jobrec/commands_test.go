package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobrec-pipeline/internal/dataio"
	"github.com/jonathan/jobrec-pipeline/internal/server/middleware"
	"github.com/jonathan/jobrec-pipeline/internal/types"
)

func TestValidatePolicyCommand_Success(t *testing.T) {
	output, err := executeCommand(t, "validate-policy", "--policy", policyPath)
	require.NoError(t, err)
	assert.Contains(t, output, "LABELING POLICY")
	assert.Contains(t, output, "Validation passed")
}

func TestValidatePolicyCommand_MissingFlag(t *testing.T) {
	_, err := executeCommand(t, "validate-policy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestValidatePolicyCommand_InvalidFile(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("label_map:\n  view: 0\n"), 0644))

	_, err := executeCommand(t, "validate-policy", "--policy", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidateRawCommand(t *testing.T) {
	root := t.TempDir()
	writeRawFixtures(t, root)

	output, err := executeCommand(t, "validate-raw", "--data-root", root)
	require.NoError(t, err)
	assert.Contains(t, output, "Validation passed")
}

func TestValidateRawCommand_DanglingReference(t *testing.T) {
	root := t.TempDir()
	writeRawFixtures(t, root)
	writeJSONFile(t, filepath.Join(root, "raw", "interactions.json"), []types.Interaction{
		{InteractionID: "i1", UserID: "ghost", JobID: "j1", EventType: "apply"},
	})

	_, err := executeCommand(t, "validate-raw", "--data-root", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestStepCommands_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writeRawFixtures(t, root)

	_, err := executeCommand(t, "clean-interactions", "--data-root", root)
	require.NoError(t, err)

	output, err := executeCommand(t, "label", "--data-root", root, "--policy", policyPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully labeled 3 pairs (2 positive) with policy v1")

	output, err = executeCommand(t, "sample-negatives", "--data-root", root, "--ratio", "2", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully sampled 4 negatives for 2 users")

	output, err = executeCommand(t, "build-dataset", "--data-root", root, "--shuffle=false")
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully assembled 6 rows (2 positive, 4 negative)")

	_, err = executeCommand(t, "build-ranking", "--data-root", root)
	require.NoError(t, err)

	output, err = executeCommand(t, "validate-output", "--data-root", root, "--step", "build_dataset")
	require.NoError(t, err)
	assert.Contains(t, output, "Validation passed: 6 rows")
	output, err = executeCommand(t, "validate-output", "--data-root", root, "--step", "build_ranking")
	require.NoError(t, err)
	assert.Contains(t, output, "ranking_records.schema.json")

	ctx := context.Background()
	store := dataio.LocalStore{}
	labels, err := dataio.ReadRecords[types.LabeledPair](ctx, store, filepath.Join(root, "supervision", "labels.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, []types.LabeledPair{
		{UserID: "u1", JobID: "j1", Label: 1},
		{UserID: "u1", JobID: "j2", Label: 0},
		{UserID: "u2", JobID: "j3", Label: 1},
	}, labels)

	negatives, err := dataio.ReadRecords[types.LabeledPair](ctx, store, filepath.Join(root, "supervision", "negatives.jsonl"))
	require.NoError(t, err)
	for _, n := range negatives {
		assert.Equal(t, 0, n.Label)
		assert.NotEqual(t, types.PairKey{UserID: "u1", JobID: "j1"}, n.Key())
		assert.NotEqual(t, types.PairKey{UserID: "u2", JobID: "j3"}, n.Key())
	}

	ranking, err := dataio.ReadRecords[types.RankingRecord](ctx, store, filepath.Join(root, "training", "ranking_dataset.parquet"))
	require.NoError(t, err)
	assert.Len(t, ranking, 6)
}

func TestBuildTrainingCommand_MissingFeatures(t *testing.T) {
	root := t.TempDir()
	writeJSONFile(t, filepath.Join(root, "dataset.json"), []types.LabeledPair{{UserID: "u1", JobID: "j1", Label: 1}})

	_, err := executeCommand(t, "build-training", "--data-root", root, "--dataset", filepath.Join(root, "dataset.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load user features")
}

func TestBuildTrainingCommand(t *testing.T) {
	root := t.TempDir()
	dataset := filepath.Join(root, "dataset.json")
	writeJSONFile(t, dataset, []types.LabeledPair{
		{UserID: "u1", JobID: "j1", Label: 1},
		{UserID: "u1", JobID: "j2", Label: 0},
		{UserID: "u2", JobID: "j1", Label: 0},
	})
	userFeatures := filepath.Join(root, "features", "user_features.json")
	jobFeatures := filepath.Join(root, "features", "job_features.json")
	writeJSONFile(t, userFeatures, []types.UserFeatures{
		{UserID: "u1", UserEmbedding: []float32{0.5, 0.5}},
	})
	writeJSONFile(t, jobFeatures, []types.JobFeatures{
		{JobID: "j1", JobEmbedding: []float32{1, 0}},
		{JobID: "j2", JobEmbedding: []float32{0, 1}},
	})
	t.Setenv("JOBREC_FEATURES_USER_EMBEDDING_DIM", "2")
	t.Setenv("JOBREC_FEATURES_JOB_EMBEDDING_DIM", "2")

	output, err := executeCommand(t, "build-training", "--data-root", root,
		"--dataset", dataset,
		"--user-features", userFeatures,
		"--job-features", jobFeatures,
		"--out", filepath.Join(root, "training.json"))
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully hydrated 2 of 3 rows")

	rows, err := dataio.ReadRecords[types.TrainingRow](context.Background(), dataio.LocalStore{}, filepath.Join(root, "training.json"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunCommand(t *testing.T) {
	root := t.TempDir()
	writeRawFixtures(t, root)

	output, err := executeCommand(t, "run", "--data-root", root, "--policy", policyPath, "--ratio", "1")
	require.NoError(t, err)
	assert.Contains(t, output, "Step 1/8: Validating raw datasets...")
	assert.Contains(t, output, "Skipping build_training")
	assert.Contains(t, output, "Pipeline completed with policy v1")

	_, err = os.Stat(filepath.Join(root, "supervision", "two_tower_dataset.parquet"))
	assert.NoError(t, err)
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sampling:\n  strategy: magic\n"), 0644))

	_, err := executeCommand(t, "run", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestRunsCommand_RequiresDatabase(t *testing.T) {
	_, err := executeCommand(t, "runs", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestHashKeyCommand(t *testing.T) {
	out, err := executeCommand(t, "hash-key", "deploy-key", "--cost", "10")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"), hash)
	_, ok := middleware.HashedKey{Hash: hash}.ValidateKey("deploy-key")
	assert.True(t, ok)

	_, err = executeCommand(t, "hash-key", "deploy-key", "--cost", "4")
	assert.ErrorContains(t, err, "cost out of range")
}

func TestTokenCommand(t *testing.T) {
	secret := "test-secret-key-for-jwt-signing-minimum-32-bytes"
	t.Setenv("JOBREC_SERVER_JWT_SECRET", secret)

	out, err := executeCommand(t, "token", "--subject", "nightly", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := middleware.ParseToken([]byte(secret), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "nightly", claims.Subject)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	t.Setenv("JOBREC_SERVER_JWT_SECRET", "")
	_, err := executeCommand(t, "token", "--subject", "nightly")
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestValidateOutputCommand_UnknownStep(t *testing.T) {
	_, err := executeCommand(t, "validate-output", "--step", "clean")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output step")
	assert.Contains(t, err.Error(), "build_ranking")
}

func TestCleanJobsAndUsersCommands(t *testing.T) {
	root := t.TempDir()
	writeRawFixtures(t, root)
	writeJSONFile(t, filepath.Join(root, "raw", "jobs.json"), []types.Job{
		{JobID: " j1", Title: " Go Engineer ", Description: "<p>Builds</p>", EmployerName: "ACME", Publisher: "Board", EmploymentType: "Full-time"},
	})

	output, err := executeCommand(t, "clean-jobs", "--data-root", root)
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully cleaned 1 jobs")

	output, err = executeCommand(t, "clean-users", "--data-root", root)
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully cleaned 2 users")

	ctx := context.Background()
	jobs, err := dataio.ReadRecords[types.Job](ctx, dataio.LocalStore{}, filepath.Join(root, "clean", "jobs.json"))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].JobID)
	assert.Equal(t, "go engineer", jobs[0].Title)
	assert.Equal(t, "Builds", jobs[0].Description)
	assert.Equal(t, "FULL_TIME", jobs[0].EmploymentType)

	users, err := dataio.ReadRecords[types.User](ctx, dataio.LocalStore{}, filepath.Join(root, "clean", "users.json"))
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "remote", users[0].Location)
}

func TestSampleNegativesCommand_PaddedJobIDs(t *testing.T) {
	root := t.TempDir()
	writeJSONFile(t, filepath.Join(root, "raw", "jobs.json"), []types.Job{
		{JobID: "j1 ", Title: "Engineer", Description: "Builds", EmployerName: "Acme", Publisher: "Board"},
		{JobID: "j2", Title: "Engineer", Description: "Builds", EmployerName: "Acme", Publisher: "Board"},
	})
	writeJSONFile(t, filepath.Join(root, "positives.json"), []types.LabeledPair{{UserID: "u1", JobID: "j1", Label: 1}})
	out := filepath.Join(root, "negatives.json")

	output, err := executeCommand(t, "sample-negatives", "--data-root", root,
		"--positives", filepath.Join(root, "positives.json"), "--out", out, "--ratio", "2")
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully sampled 1 negatives for 1 users")

	negatives, err := dataio.ReadRecords[types.LabeledPair](context.Background(), dataio.LocalStore{}, out)
	require.NoError(t, err)
	assert.Equal(t, []types.LabeledPair{{UserID: "u1", JobID: "j2", Label: 0}}, negatives)
}
