// Package main provides the entry point for the jobrec supervision pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobrec",
	Short: "Job recommendation supervision pipeline",
	Long: `jobrec turns raw job, user and interaction datasets into supervision for a
two-tower retrieval model: policy-driven labels, sampled negatives, the
assembled contrastive dataset, hydrated training rows and ranker rows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath  string
	dataRoot    string
	databaseURL string
	verbose     bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to pipeline config (YAML or JSON); defaults apply when omitted")
	rootCmd.PersistentFlags().StringVar(&dataRoot, "data-root", "", "Directory or gs:// prefix that relative dataset paths resolve against")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed step summaries")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
