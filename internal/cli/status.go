package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/growth-engine/growth-engine/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status <name> <draft|active|paused|completed>",
	Short: "Change a test's status",
	Long: `Change a test's status. The status machine is manual: tests never
transition on their own.

Examples:
  growth-engine status cta-copy active
  growth-engine status cta-copy paused`,
	Args: cobra.ExactArgs(2),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	testName := args[0]
	status := store.TestStatus(args[1])

	if !store.ValidStatus(status) {
		return fmt.Errorf("unknown status %q (use draft, active, paused, or completed)", args[1])
	}

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		test, err := s.GetTest(ctx, testName)
		if err != nil {
			return fmt.Errorf("test not found: %s", testName)
		}

		if err := s.UpdateTestStatus(ctx, testName, status, test.Winner); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		fmt.Printf("Test '%s': %s → %s\n", testName, test.Status, status)
		return nil
	})
}
