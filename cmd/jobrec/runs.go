package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/db"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline runs recorded in the database",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the steps and artifacts of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run with its steps and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	runsShowCmd.Flags().String("artifact", "", "Print the stored summary of one step's artifact as JSON")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func connectRuns(ctx context.Context, cmd *cobra.Command) (*db.DB, error) {
	cfg, err := loadCommandConfig(cmd, nil)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	database, err := connectRuns(ctx, cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := database.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN ID\tPOLICY\tSTATUS\tCREATED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.PolicyVersion, r.Status, r.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id: %w", err)
	}

	ctx := context.Background()
	database, err := connectRuns(ctx, cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	if step, _ := cmd.Flags().GetString("artifact"); step != "" {
		return printArtifact(ctx, cmd, database, runID, step)
	}

	runSteps, err := database.ListRunSteps(ctx, runID, nil, nil)
	if err != nil {
		return err
	}
	artifacts, err := database.ListArtifacts(ctx, db.ArtifactFilters{RunID: runID})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run %s (policy %s): %s\n\n", run.ID, run.PolicyVersion, run.Status)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STEP\tCATEGORY\tSTATUS\tDURATION")
	for _, st := range runSteps {
		duration := "-"
		if st.DurationMs != nil {
			duration = (time.Duration(*st.DurationMs) * time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Step, st.Category, st.Status, duration)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "ARTIFACT\tROWS\tLOCATION")
	for _, a := range artifacts {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", a.Step, a.RowCount, a.Location)
	}
	return w.Flush()
}

func printArtifact(ctx context.Context, cmd *cobra.Command, database *db.DB, runID uuid.UUID, step string) error {
	artifact, err := database.GetArtifact(ctx, runID, step)
	if err != nil {
		return err
	}
	if artifact == nil {
		return fmt.Errorf("run %s has no artifact for step %s", runID, step)
	}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id: %w", err)
	}

	ctx := context.Background()
	database, err := connectRuns(ctx, cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteRun(ctx, runID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", runID)
	return nil
}
