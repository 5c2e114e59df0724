package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/growth-engine/growth-engine/internal/store"
)

func init() {
	rootCmd.AddCommand(newWinnerCmd())
}

func newWinnerCmd() *cobra.Command {
	var variantID string

	cmd := &cobra.Command{
		Use:   "winner <name>",
		Short: "Declare a winner for a test",
		Long: `Declare a winning variant for an A/B test and complete it.

Example:
  growth-engine winner cta-copy --variant urgency`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testName := args[0]

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()
				test, err := s.GetTest(ctx, testName)
				if err != nil {
					return fmt.Errorf("test not found: %s", testName)
				}

				if test.Status != store.StatusActive && test.Status != store.StatusPaused {
					return fmt.Errorf("test is not running (current status: %s)", test.Status)
				}

				if test.Variant(variantID) == nil {
					return fmt.Errorf("unknown variant %q (test has: %s)", variantID, variantIDs(test))
				}

				if err := s.UpdateTestStatus(ctx, testName, store.StatusCompleted, &variantID); err != nil {
					return fmt.Errorf("failed to set winner: %w", err)
				}

				fmt.Printf("Declared winner for test '%s': %s\n", testName, variantID)
				fmt.Println("Test has been marked as completed.")

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variantID, "variant", "v", "", "winning variant id (required)")
	cmd.MarkFlagRequired("variant")

	return cmd
}

func variantIDs(test *store.Test) string {
	ids := ""
	for i, v := range test.Variants {
		if i > 0 {
			ids += ", "
		}
		ids += v.ID
	}
	return ids
}
