package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobrec-pipeline/internal/observability"
	"github.com/jonathan/jobrec-pipeline/internal/policy"
)

var validatePolicyCmd = &cobra.Command{
	Use:   "validate-policy",
	Short: "Validate a labeling policy file",
	Long:  "Checks a labeling policy against its JSON Schema and prints the resolved label map, ignored events and priorities.",
	RunE:  runValidatePolicy,
}

func init() {
	validatePolicyCmd.Flags().StringP("policy", "p", "", "Path to labeling policy YAML (required)")

	if err := validatePolicyCmd.MarkFlagRequired("policy"); err != nil {
		panic(fmt.Sprintf("failed to mark policy flag as required: %v", err))
	}

	rootCmd.AddCommand(validatePolicyCmd)
}

func runValidatePolicy(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("policy")
	pol, err := policy.Load(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintPolicy(pol)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}
