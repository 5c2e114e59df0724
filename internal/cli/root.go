// Package cli implements the growth-engine command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "growth-engine",
	Short: "Self-hosted engagement scoring, CTA selection, and A/B testing",
	Long: `growth-engine scores visitor engagement, selects CTAs and content
against declarative rules, assigns A/B test variants, and fires behavior
triggers. Single Go binary, embedded SQLite.

Running without a subcommand starts the server (same as 'growth-engine serve').`,
	RunE: runServe, // Default action is to start the server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", getEnvOrDefault("GE_DB_PATH", "./growth-engine.db"), "database path")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
