package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataRoot)
	assert.Equal(t, 4, cfg.Sampling.Ratio)
	assert.Equal(t, int64(42), cfg.Sampling.Seed)
	assert.Equal(t, "uniform", cfg.Sampling.Strategy)
	assert.True(t, cfg.Assembly.Shuffle)
	assert.Equal(t, []int{0, 1}, cfg.Features.AllowedLabels)
	assert.Equal(t, []float64{0.0, 1.0}, cfg.Ranking.SkillOverlapRange)
	assert.Equal(t, []int{-5, 5}, cfg.Ranking.ExperienceGapRange)
	assert.Equal(t, "configs/labeling_policy.yaml", cfg.Labeling.PolicyPath)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := `
data_root: /srv/jobrec
sampling:
  ratio: 2
  seed: 7
  strategy: popularity
assembly:
  shuffle: false
features:
  user_embedding_dim: 8
  job_embedding_dim: 16
paths:
  training: gs://models/training.parquet
`
	tmpFile := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "/srv/jobrec", cfg.DataRoot)
	assert.Equal(t, 2, cfg.Sampling.Ratio)
	assert.Equal(t, int64(7), cfg.Sampling.Seed)
	assert.Equal(t, "popularity", cfg.Sampling.Strategy)
	assert.False(t, cfg.Assembly.Shuffle)
	assert.Equal(t, 8, cfg.Features.UserEmbeddingDim)
	assert.Equal(t, 16, cfg.Features.JobEmbeddingDim)
	assert.Equal(t, "raw/jobs.json", cfg.Paths.JobsRaw)
	assert.True(t, cfg.UsesGCS())
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{"data_root": "out", "sampling": {"ratio": 3}}`
	tmpFile := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.DataRoot)
	assert.Equal(t, 3, cfg.Sampling.Ratio)
	assert.False(t, cfg.UsesGCS())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JOBREC_SAMPLING_RATIO", "9")
	t.Setenv("JOBREC_LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://localhost/jobrec")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Sampling.Ratio)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres://localhost/jobrec", cfg.DatabaseURL)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("sampling: [unclosed"), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/pipeline.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "negative ratio", mutate: func(c *Config) { c.Sampling.Ratio = -1 }, errMsg: "Ratio"},
		{name: "zero ratio", mutate: func(c *Config) { c.Sampling.Ratio = 0 }},
		{name: "unknown strategy", mutate: func(c *Config) { c.Sampling.Strategy = "greedy" }, errMsg: "Strategy"},
		{name: "bad log mode", mutate: func(c *Config) { c.Log.Mode = "loud" }, errMsg: "Mode"},
		{name: "short range", mutate: func(c *Config) { c.Ranking.SkillOverlapRange = []float64{1} }, errMsg: "SkillOverlapRange"},
		{name: "inverted range", mutate: func(c *Config) { c.Ranking.ExperienceGapRange = []int{3, -3} }, errMsg: "experience_gap_range"},
		{name: "labels missing zero", mutate: func(c *Config) { c.Features.AllowedLabels = []int{1} }, errMsg: "must contain 0 and 1"},
		{name: "empty data root", mutate: func(c *Config) { c.DataRoot = "" }, errMsg: "DataRoot"},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, errMsg: "Port"},
		{name: "short jwt secret", mutate: func(c *Config) { c.Server.JWTSecret = "short" }, errMsg: "JWTSecret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadConfig_ServerSection(t *testing.T) {
	content := `
server:
  port: 9090
  api_key_hash: "$2a$10$abcdefghijklmnopqrstuv"
  rate_limit:
    run_limit: 3
    run_window: 30m
    whitelist: ["10.0.0.1"]
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", cfg.Server.APIKeyHash)
	assert.Equal(t, 3, cfg.Server.RateLimit.RunLimit)
	assert.Equal(t, 30*time.Minute, cfg.Server.RateLimit.RunWindow)
	assert.Equal(t, time.Minute, cfg.Server.RateLimit.DefaultWindow)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.Server.RateLimit.Whitelist)
}

func TestResolve(t *testing.T) {
	local := &Config{DataRoot: "data"}
	assert.Equal(t, filepath.Join("data", "raw/jobs.json"), local.Resolve("raw/jobs.json"))
	assert.Equal(t, "/abs/jobs.json", local.Resolve("/abs/jobs.json"))
	assert.Equal(t, "gs://b/jobs.json", local.Resolve("gs://b/jobs.json"))
	assert.Equal(t, "", local.Resolve(""))

	remote := &Config{DataRoot: "gs://bucket/run/"}
	assert.Equal(t, "gs://bucket/run/raw/jobs.json", remote.Resolve("raw/jobs.json"))
}
