package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/jobrec-pipeline/internal/assembly"
	"github.com/jonathan/jobrec-pipeline/internal/cleaning"
	"github.com/jonathan/jobrec-pipeline/internal/config"
	"github.com/jonathan/jobrec-pipeline/internal/dataio"
	"github.com/jonathan/jobrec-pipeline/internal/labeling"
	"github.com/jonathan/jobrec-pipeline/internal/logger"
	"github.com/jonathan/jobrec-pipeline/internal/pipeline/steps"
	"github.com/jonathan/jobrec-pipeline/internal/sampling"
	"github.com/jonathan/jobrec-pipeline/internal/schemas"
	"github.com/jonathan/jobrec-pipeline/internal/seeded"
	"github.com/jonathan/jobrec-pipeline/internal/types"
	"github.com/jonathan/jobrec-pipeline/internal/validation"
	artifacts "github.com/jonathan/jobrec-pipeline/schemas"
)

func runValidateRaw(s *runState) (string, error) {
	interactions, report, err := validation.ValidateRaw(s.jobs, s.users, s.rawInteractions)
	if err != nil {
		return "", err
	}
	s.interactions = interactions
	s.result.Validation = report
	if s.verbose {
		s.printer.PrintValidationReport(report)
	}
	return fmt.Sprintf("Validated %d jobs, %d users, %d interactions", report.Jobs, report.Users, report.Interactions), nil
}

func runClean(s *runState) (string, error) {
	cleaned, stats := cleaning.CleanInteractions(s.interactions)
	s.interactions = cleaned
	s.result.Cleaning = stats

	var jobStats cleaning.JobStats
	var userStats cleaning.UserStats
	s.jobs, jobStats = cleaning.CleanJobs(s.jobs)
	s.users, userStats = cleaning.CleanUsers(s.users)
	s.result.JobCleaning = jobStats
	s.result.UserCleaning = userStats

	if s.verbose {
		s.printer.PrintCleaningStats(stats)
		s.printer.PrintJobCleaningStats(jobStats)
		s.printer.PrintUserCleaningStats(userStats)
	}
	return fmt.Sprintf("Cleaned %d interactions (%d duplicates dropped), %d jobs, %d users",
		stats.Output, stats.Duplicates, jobStats.Input, userStats.Input), nil
}

func runLabel(s *runState) (string, error) {
	labels, stats, err := labeling.GenerateLabelsWithStats(s.interactions, s.policy)
	if err != nil {
		return "", err
	}
	s.labels = labels
	s.result.Labels = stats
	if s.verbose {
		s.printer.PrintLabelStats(stats)
	}
	return fmt.Sprintf("Labeled %d pairs from %d interactions", stats.Pairs, stats.Interactions), nil
}

func runFilterPositives(s *runState) (string, error) {
	positives, err := labeling.FilterPositives(s.labels)
	if err != nil {
		return "", err
	}
	s.positives = positives
	return fmt.Sprintf("Kept %d positive pairs", len(positives)), nil
}

func runSampleNegatives(s *runState) (string, error) {
	universe, err := CandidateJobs(s.jobs)
	if err != nil {
		return "", err
	}
	popularity := sampling.ComputePopularity(s.positives)
	strategy, err := sampling.StrategyByName(s.cfg.Sampling.Strategy, popularity, s.cfg.Sampling.PopularitySmoothing)
	if err != nil {
		return "", err
	}

	sampler := &sampling.Sampler{Ratio: s.cfg.Sampling.Ratio, Strategy: strategy}
	negatives, report, err := sampler.SampleWithReport(s.positives, universe, seeded.New(s.cfg.Sampling.Seed))
	if err != nil {
		return "", err
	}
	s.negatives = negatives
	s.result.Sampling = report
	if s.verbose {
		s.printer.PrintSamplingReport(strategy.Name(), s.cfg.Sampling.Ratio, report, sampling.RankByPopularity(popularity))
	}
	return fmt.Sprintf("Sampled %d negatives for %d users", len(negatives), len(report)), nil
}

func runBuildDataset(s *runState) (string, error) {
	dataset, err := assembly.Assemble(s.positives, s.negatives, s.cfg.Assembly.Seed, s.cfg.Assembly.Shuffle)
	if err != nil {
		return "", err
	}
	s.dataset = dataset
	s.result.Dataset = assembly.Summarize(dataset)
	if s.verbose {
		s.printer.PrintDatasetSummary("TWO-TOWER DATASET", s.result.Dataset)
	}
	return fmt.Sprintf("Assembled %d rows", len(dataset)), nil
}

func runBuildTraining(s *runState) (string, error) {
	if s.featuresMissing {
		return "", &skipStep{reason: "user or job feature table not found"}
	}
	rows, stats, err := assembly.HydrateTrainingRows(s.dataset, s.userFeatures, s.jobFeatures, FeatureContract(s.cfg))
	if err != nil {
		return "", err
	}
	s.training = rows
	s.result.Hydration = stats
	if s.verbose {
		s.printer.PrintHydrationStats(stats)
	}
	return fmt.Sprintf("Hydrated %d of %d rows", stats.Hydrated, stats.Input), nil
}

func runBuildRanking(s *runState) (string, error) {
	records, err := assembly.BuildRankingRecords(s.dataset, seeded.New(s.cfg.Ranking.Seed), RankingRanges(s.cfg))
	if err != nil {
		return "", err
	}
	s.ranking = records
	s.result.RankingRows = len(records)
	return fmt.Sprintf("Built %d ranking rows", len(records)), nil
}

// CandidateJobs is the negative-sampling universe for jobs: ids are
// normalized the same way cleaned interactions are, so a positive can never
// reappear as a negative under a differently padded id.
func CandidateJobs(jobs []types.Job) ([]string, error) {
	cleaned, _ := cleaning.CleanJobs(jobs)
	return sampling.JobUniverse(cleaned)
}

// FeatureContract is the hydration contract configured in cfg.
func FeatureContract(cfg *config.Config) assembly.FeatureContract {
	return assembly.FeatureContract{
		UserEmbeddingDim: cfg.Features.UserEmbeddingDim,
		JobEmbeddingDim:  cfg.Features.JobEmbeddingDim,
		AllowedLabels:    cfg.Features.AllowedLabels,
	}
}

// RankingRanges is the ranking feature configuration in cfg. cfg must have
// passed Validate.
func RankingRanges(cfg *config.Config) assembly.RankingRanges {
	so, eg := cfg.Ranking.SkillOverlapRange, cfg.Ranking.ExperienceGapRange
	return assembly.RankingRanges{
		SkillOverlap:  [2]float64{so[0], so[1]},
		ExperienceGap: [2]int{eg[0], eg[1]},
	}
}

// checkSchemas validates outputs against the artifact schemas. Violations are
// logged, not fatal.
func checkSchemas(s *runState, log *logger.Logger) {
	checks := []struct {
		step   string
		schema string
		doc    any
		ok     bool
	}{
		{steps.Label, artifacts.LabeledPairs, s.labels, true},
		{steps.BuildDataset, artifacts.LabeledPairs, s.dataset, true},
		{steps.BuildTraining, artifacts.TrainingRows, s.training, s.training != nil},
		{steps.BuildRanking, artifacts.RankingRecords, s.ranking, true},
	}
	for _, c := range checks {
		if !c.ok {
			continue
		}
		if err := schemas.ValidateDocument(c.schema, c.doc); err != nil {
			log.Warn("Output failed schema validation", "step", c.step, "schema", c.schema, "error", err)
		}
	}
}

// writeOutputs writes every produced dataset concurrently to staging paths
// and renames them into place once all writes have succeeded. A failed write
// leaves the previous outputs untouched.
func writeOutputs(ctx context.Context, store dataio.Store, s *runState) ([]Output, error) {
	cfg := s.cfg
	type job struct {
		step  string
		path  string
		rows  int
		write func(ctx context.Context, path string) error
	}
	jobs := []job{
		{steps.Clean, cfg.Paths.InteractionsClean, len(s.interactions), func(ctx context.Context, p string) error {
			return dataio.WriteRecords(ctx, store, p, s.interactions)
		}},
		{steps.Label, cfg.Paths.Labels, len(s.labels), func(ctx context.Context, p string) error {
			return dataio.WriteRecords(ctx, store, p, s.labels)
		}},
		{steps.FilterPositives, cfg.Paths.Positives, len(s.positives), func(ctx context.Context, p string) error {
			return dataio.WriteRecords(ctx, store, p, s.positives)
		}},
		{steps.SampleNegatives, cfg.Paths.Negatives, len(s.negatives), func(ctx context.Context, p string) error {
			return dataio.WriteRecords(ctx, store, p, s.negatives)
		}},
		{steps.BuildDataset, cfg.Paths.Dataset, len(s.dataset), func(ctx context.Context, p string) error {
			return dataio.WriteRecords(ctx, store, p, s.dataset)
		}},
		{steps.BuildRanking, cfg.Paths.Ranking, len(s.ranking), func(ctx context.Context, p string) error {
			return dataio.WriteRecords(ctx, store, p, s.ranking)
		}},
	}
	if s.training != nil {
		jobs = append(jobs, job{steps.BuildTraining, cfg.Paths.Training, len(s.training), func(ctx context.Context, p string) error {
			return dataio.WriteRecords(ctx, store, p, s.training)
		}})
	}

	token := uuid.NewString()
	outputs := make([]Output, len(jobs))
	staged := make([]string, len(jobs))
	for i, j := range jobs {
		path := cfg.Resolve(j.path)
		outputs[i] = Output{Step: j.step, Path: path, Rows: j.rows}
		staged[i] = dataio.StagingPath(path, token)
	}

	g, gCtx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			if err := j.write(gCtx, staged[i]); err != nil {
				return fmt.Errorf("failed to write %s output: %w", j.step, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		removeStaged(ctx, store, staged)
		return nil, err
	}

	for i, o := range outputs {
		if err := store.Rename(ctx, staged[i], o.Path); err != nil {
			removeStaged(ctx, store, staged[i:])
			return nil, fmt.Errorf("failed to commit %s output: %w", o.Step, err)
		}
	}
	return outputs, nil
}

// removeStaged deletes staging objects left by an aborted write.
func removeStaged(ctx context.Context, store dataio.Store, paths []string) {
	for _, p := range paths {
		_ = store.Remove(context.WithoutCancel(ctx), p)
	}
}

// artifactSummary is the JSON stored next to each artifact record.
func artifactSummary(r *Result, step string) any {
	switch step {
	case steps.Clean:
		return r.Cleaning
	case steps.Label:
		return r.Labels
	case steps.SampleNegatives:
		return r.Sampling
	case steps.BuildDataset:
		return r.Dataset
	case steps.BuildTraining:
		return r.Hydration
	default:
		return nil
	}
}
