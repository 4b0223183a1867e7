package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobrec-pipeline/internal/types"
)

var policyPath = filepath.Join("..", "..", "configs", "labeling_policy.yaml")

// executeCommand runs the root command in-process with fresh flag state and
// returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JOBREC_DATABASE_URL", "")
	t.Setenv("JOBREC_LOG_LEVEL", "error")
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeJSONFile(t *testing.T, path string, v any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// writeRawFixtures lays out a small raw dataset under root/raw.
func writeRawFixtures(t *testing.T, root string) {
	t.Helper()
	var jobs []types.Job
	for _, id := range []string{"j1", "j2", "j3", "j4", "j5"} {
		jobs = append(jobs, types.Job{JobID: id, Title: "Engineer", Description: "Builds", EmployerName: "Acme", Publisher: "Board"})
	}
	var users []types.User
	for _, id := range []string{"u1", "u2"} {
		users = append(users, types.User{
			UserID: id, PrimaryRoles: []string{"engineer"}, Skills: []string{"go"},
			ExperienceLevel: "mid", EducationLevel: "bachelor", Location: "Remote", YearsOfExperience: 3,
		})
	}
	interactions := []types.Interaction{
		{InteractionID: "i1", UserID: "u1", JobID: "j1", EventType: "Apply"},
		{InteractionID: "i2", UserID: "u1", JobID: "j2", EventType: "view"},
		{InteractionID: "i3", UserID: "u2", JobID: "j3", EventType: " click "},
		{InteractionID: "i4", UserID: "u2", JobID: "j4", EventType: "impression"},
	}
	writeJSONFile(t, filepath.Join(root, "raw", "jobs.json"), jobs)
	writeJSONFile(t, filepath.Join(root, "raw", "users.json"), users)
	writeJSONFile(t, filepath.Join(root, "raw", "interactions.json"), interactions)
}
