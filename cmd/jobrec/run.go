package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full supervision pipeline end-to-end",
	Long: `Orchestrates the entire pipeline: validate-raw -> clean -> label -> filter positives -> sample negatives -> build dataset -> build training -> build ranking.

Every dataset is written only after all stages succeed. When DATABASE_URL (or --db-url) is set, the run,
its step statuses and its artifacts are recorded in PostgreSQL.`,
	RunE: runPipelineCmd,
}

func init() {
	runCommand.Flags().StringP("policy", "p", "", "Path to labeling policy YAML (defaults to labeling.policy_path)")
	runCommand.Flags().Int("ratio", 0, "Negatives per positive (defaults to sampling.ratio)")
	runCommand.Flags().Int64("seed", 0, "Sampling seed (defaults to sampling.seed)")
	runCommand.Flags().String("strategy", "", "Sampling strategy: uniform or popularity (defaults to sampling.strategy)")
	runCommand.Flags().Bool("shuffle", true, "Shuffle the assembled dataset (defaults to assembly.shuffle)")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	s, err := newSession(ctx, cmd, map[string]string{
		"labeling.policy_path": "policy",
		"sampling.ratio":       "ratio",
		"sampling.seed":        "seed",
		"sampling.strategy":    "strategy",
		"assembly.shuffle":     "shuffle",
	})
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	if s.cfg.Verbose && configPath != "" {
		_, _ = fmt.Fprintf(out, "Loaded config from: %s\n", configPath)
	}

	result, err := pipeline.RunPipeline(ctx, pipeline.RunOptions{
		Config:  s.cfg,
		Store:   s.store,
		Logger:  s.log,
		Out:     out,
		Verbose: s.cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	s.printer.PrintDatasetSummary("RUN SUMMARY", result.Dataset)
	for _, o := range result.Outputs {
		_, _ = fmt.Fprintf(out, "  %-18s %6d rows  %s\n", o.Step, o.Rows, o.Path)
	}
	_, _ = fmt.Fprintf(out, "\nPipeline completed with policy %s\n", result.PolicyVersion)
	return nil
}
