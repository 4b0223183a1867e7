package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/pipeline"
	"github.com/jonathan/jobrec-pipeline/internal/sampling"
	"github.com/jonathan/jobrec-pipeline/internal/seeded"
	"github.com/jonathan/jobrec-pipeline/internal/types"
)

var sampleNegativesCmd = &cobra.Command{
	Use:   "sample-negatives",
	Short: "Sample negative (user, job) pairs for every user with positives",
	RunE:  runSampleNegatives,
}

func init() {
	sampleNegativesCmd.Flags().String("positives", "", "Path to positive pairs (defaults to paths.positives)")
	sampleNegativesCmd.Flags().String("jobs", "", "Path to jobs dataset forming the candidate universe (defaults to paths.jobs_raw)")
	sampleNegativesCmd.Flags().StringP("out", "o", "", "Path to sampled negatives (defaults to paths.negatives)")
	sampleNegativesCmd.Flags().Int("ratio", 0, "Negatives per positive (defaults to sampling.ratio)")
	sampleNegativesCmd.Flags().Int64("seed", 0, "Random seed (defaults to sampling.seed)")
	sampleNegativesCmd.Flags().String("strategy", "", "Sampling strategy: uniform or popularity (defaults to sampling.strategy)")

	rootCmd.AddCommand(sampleNegativesCmd)
}

func runSampleNegatives(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, map[string]string{
		"sampling.ratio":    "ratio",
		"sampling.seed":     "seed",
		"sampling.strategy": "strategy",
	})
	if err != nil {
		return err
	}
	defer s.close()

	positives, err := readRecords[types.LabeledPair](ctx, s, s.path(cmd, "positives", s.cfg.Paths.Positives), "positives")
	if err != nil {
		return err
	}
	jobs, err := readRecords[types.Job](ctx, s, s.path(cmd, "jobs", s.cfg.Paths.JobsRaw), "jobs")
	if err != nil {
		return err
	}

	universe, err := pipeline.CandidateJobs(jobs)
	if err != nil {
		return err
	}
	popularity := sampling.ComputePopularity(positives)
	strategy, err := sampling.StrategyByName(s.cfg.Sampling.Strategy, popularity, s.cfg.Sampling.PopularitySmoothing)
	if err != nil {
		return err
	}

	sampler := &sampling.Sampler{Ratio: s.cfg.Sampling.Ratio, Strategy: strategy}
	negatives, report, err := sampler.SampleWithReport(positives, universe, seeded.New(s.cfg.Sampling.Seed))
	if err != nil {
		return fmt.Errorf("failed to sample negatives: %w", err)
	}

	outPath := s.path(cmd, "out", s.cfg.Paths.Negatives)
	if err := writeRecords(ctx, s, outPath, "negatives", negatives); err != nil {
		return err
	}

	if s.cfg.Verbose {
		s.printer.PrintSamplingReport(strategy.Name(), s.cfg.Sampling.Ratio, report, sampling.RankByPopularity(popularity))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully sampled %d negatives for %d users to %s\n", len(negatives), len(report), outPath)
	return nil
}
