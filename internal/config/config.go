// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. JOBREC_SAMPLING_RATIO.
const EnvPrefix = "JOBREC"

// Config is the pipeline configuration. Every key has a default, so an empty
// config file (or none at all) yields a runnable configuration.
type Config struct {
	DataRoot    string `mapstructure:"data_root" validate:"required"`
	DatabaseURL string `mapstructure:"database_url"` // optional; runs are file-only without it
	Verbose     bool   `mapstructure:"verbose"`

	Log      LogConfig      `mapstructure:"log"`
	Paths    Paths          `mapstructure:"paths"`
	Labeling LabelingConfig `mapstructure:"labeling"`
	Sampling SamplingConfig `mapstructure:"sampling"`
	Assembly AssemblyConfig `mapstructure:"assembly"`
	Features FeaturesConfig `mapstructure:"features"`
	Ranking  RankingConfig  `mapstructure:"ranking"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LogConfig selects the zap preset and level.
type LogConfig struct {
	Mode  string `mapstructure:"mode" validate:"oneof=development production"`
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

// Paths locates every dataset. Relative paths resolve against DataRoot.
type Paths struct {
	JobsRaw           string `mapstructure:"jobs_raw" validate:"required"`
	UsersRaw          string `mapstructure:"users_raw" validate:"required"`
	InteractionsRaw   string `mapstructure:"interactions_raw" validate:"required"`
	InteractionsClean string `mapstructure:"interactions_clean" validate:"required"`
	JobsClean         string `mapstructure:"jobs_clean" validate:"required"`
	UsersClean        string `mapstructure:"users_clean" validate:"required"`
	Labels            string `mapstructure:"labels" validate:"required"`
	Positives         string `mapstructure:"positives" validate:"required"`
	Negatives         string `mapstructure:"negatives" validate:"required"`
	Dataset           string `mapstructure:"dataset" validate:"required"`
	UserFeatures      string `mapstructure:"user_features" validate:"required"`
	JobFeatures       string `mapstructure:"job_features" validate:"required"`
	Training          string `mapstructure:"training" validate:"required"`
	Ranking           string `mapstructure:"ranking" validate:"required"`
}

// LabelingConfig points at the labeling policy document.
type LabelingConfig struct {
	PolicyPath string `mapstructure:"policy_path" validate:"required"`
}

// SamplingConfig controls negative sampling.
type SamplingConfig struct {
	Ratio               int     `mapstructure:"ratio" validate:"gte=0"`
	Seed                int64   `mapstructure:"seed"`
	Strategy            string  `mapstructure:"strategy" validate:"oneof=uniform popularity"`
	PopularitySmoothing float64 `mapstructure:"popularity_smoothing" validate:"gte=0"`
}

// AssemblyConfig controls dataset assembly.
type AssemblyConfig struct {
	Seed    int64 `mapstructure:"seed"`
	Shuffle bool  `mapstructure:"shuffle"`
}

// FeaturesConfig is the feature contract for hydrated training rows.
type FeaturesConfig struct {
	UserEmbeddingDim int   `mapstructure:"user_embedding_dim" validate:"gt=0"`
	JobEmbeddingDim  int   `mapstructure:"job_embedding_dim" validate:"gt=0"`
	AllowedLabels    []int `mapstructure:"allowed_labels" validate:"required,min=1"`
}

// RankingConfig bounds the placeholder ranker features.
type RankingConfig struct {
	Seed               int64     `mapstructure:"seed"`
	SkillOverlapRange  []float64 `mapstructure:"skill_overlap_range" validate:"len=2"`
	ExperienceGapRange []int     `mapstructure:"experience_gap_range" validate:"len=2"`
}

// GCSConfig configures access to gs:// paths.
type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

// ServerConfig configures the HTTP API started by `jobrec serve`. Run and
// delete endpoints require a credential when any of APIKey, APIKeyHash or
// JWTSecret is set.
type ServerConfig struct {
	Port       int             `mapstructure:"port" validate:"gt=0,lte=65535"`
	APIKey     string          `mapstructure:"api_key"`
	APIKeyHash string          `mapstructure:"api_key_hash"` // bcrypt hash, see `jobrec hash-key`
	JWTSecret  string          `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds API requests per client.
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DefaultLimit  int           `mapstructure:"default_limit" validate:"gte=0"`
	DefaultWindow time.Duration `mapstructure:"default_window" validate:"gte=0"`
	RunLimit      int           `mapstructure:"run_limit" validate:"gte=0"`
	RunWindow     time.Duration `mapstructure:"run_window" validate:"gte=0"`
	Whitelist     []string      `mapstructure:"whitelist"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_root", "data")
	v.SetDefault("database_url", "")
	v.SetDefault("verbose", false)

	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("paths.jobs_raw", "raw/jobs.json")
	v.SetDefault("paths.users_raw", "raw/users.json")
	v.SetDefault("paths.interactions_raw", "raw/interactions.json")
	v.SetDefault("paths.interactions_clean", "clean/interactions.json")
	v.SetDefault("paths.jobs_clean", "clean/jobs.json")
	v.SetDefault("paths.users_clean", "clean/users.json")
	v.SetDefault("paths.labels", "supervision/labels.jsonl")
	v.SetDefault("paths.positives", "supervision/positives.jsonl")
	v.SetDefault("paths.negatives", "supervision/negatives.jsonl")
	v.SetDefault("paths.dataset", "supervision/two_tower_dataset.parquet")
	v.SetDefault("paths.user_features", "features/user_features.jsonl")
	v.SetDefault("paths.job_features", "features/job_features.jsonl")
	v.SetDefault("paths.training", "training/two_tower_training.parquet")
	v.SetDefault("paths.ranking", "training/ranking_dataset.parquet")

	v.SetDefault("labeling.policy_path", "configs/labeling_policy.yaml")

	v.SetDefault("sampling.ratio", 4)
	v.SetDefault("sampling.seed", 42)
	v.SetDefault("sampling.strategy", "uniform")
	v.SetDefault("sampling.popularity_smoothing", 1.0)

	v.SetDefault("assembly.seed", 42)
	v.SetDefault("assembly.shuffle", true)

	v.SetDefault("features.user_embedding_dim", 384)
	v.SetDefault("features.job_embedding_dim", 384)
	v.SetDefault("features.allowed_labels", []int{0, 1})

	v.SetDefault("ranking.seed", 42)
	v.SetDefault("ranking.skill_overlap_range", []float64{0.0, 1.0})
	v.SetDefault("ranking.experience_gap_range", []int{-5, 5})

	v.SetDefault("gcs.credentials_file", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.api_key_hash", "")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.default_limit", 600)
	v.SetDefault("server.rate_limit.default_window", time.Minute)
	v.SetDefault("server.rate_limit.run_limit", 10)
	v.SetDefault("server.rate_limit.run_window", time.Hour)
	v.SetDefault("server.rate_limit.whitelist", []string{})
}

// New returns a viper instance with defaults and JOBREC_* environment
// overrides registered. DATABASE_URL and GOOGLE_APPLICATION_CREDENTIALS are
// honored as fallbacks.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("gcs.credentials_file", EnvPrefix+"_GCS_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")
	return v
}

// LoadConfig reads the YAML or JSON file at path over the defaults. An empty
// path loads defaults and environment overrides only.
func LoadConfig(path string) (*Config, error) {
	v := New()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and the cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if r := c.Ranking.SkillOverlapRange; r[0] > r[1] {
		return fmt.Errorf("config error: 'ranking.skill_overlap_range' lower bound %v exceeds upper bound %v", r[0], r[1])
	}
	if r := c.Ranking.ExperienceGapRange; r[0] > r[1] {
		return fmt.Errorf("config error: 'ranking.experience_gap_range' lower bound %d exceeds upper bound %d", r[0], r[1])
	}

	hasPositive, hasNegative := false, false
	for _, label := range c.Features.AllowedLabels {
		hasPositive = hasPositive || label == 1
		hasNegative = hasNegative || label == 0
	}
	if !hasPositive || !hasNegative {
		return fmt.Errorf("config error: 'features.allowed_labels' must contain 0 and 1, got %v", c.Features.AllowedLabels)
	}

	return nil
}

// Resolve maps a configured dataset path to a readable location. Absolute
// and gs:// paths are returned unchanged; anything else is joined to DataRoot.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "gs://") {
		return p
	}
	if strings.HasPrefix(c.DataRoot, "gs://") {
		return strings.TrimRight(c.DataRoot, "/") + "/" + path.Clean(filepath.ToSlash(p))
	}
	return filepath.Join(c.DataRoot, p)
}

// UsesGCS reports whether any configured dataset lives in Cloud Storage.
func (c *Config) UsesGCS() bool {
	for _, p := range c.Paths.All() {
		if strings.HasPrefix(c.Resolve(p), "gs://") {
			return true
		}
	}
	return false
}

// All lists every configured dataset path in pipeline order.
func (p Paths) All() []string {
	return []string{
		p.JobsRaw, p.UsersRaw, p.InteractionsRaw, p.InteractionsClean, p.JobsClean, p.UsersClean,
		p.Labels, p.Positives, p.Negatives, p.Dataset,
		p.UserFeatures, p.JobFeatures, p.Training, p.Ranking,
	}
}
