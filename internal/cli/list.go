package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/growth-engine/growth-engine/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tests",
	Long:  `List all A/B tests with their status and statistics.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		tests, err := s.ListTests(ctx)
		if err != nil {
			return fmt.Errorf("failed to list tests: %w", err)
		}

		if len(tests) == 0 {
			fmt.Println("No tests yet.")
			fmt.Println()
			fmt.Println("Define tests in the catalog (tests.yaml) or create one:")
			fmt.Println("  growth-engine create cta-copy --variants \"control:0.5,urgency:0.5\"")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATUS\tVARIANTS\tTRAFFIC\tIMPRESSIONS\tCONVERSIONS\tCREATED")

		for _, test := range tests {
			variantStats, err := s.GetVariantStats(ctx, test.Name)
			if err != nil {
				return fmt.Errorf("failed to get stats for test %s: %w", test.Name, err)
			}

			totalImpressions := 0
			totalConversions := 0
			for _, stat := range variantStats {
				totalImpressions += stat.Impressions
				totalConversions += stat.Conversions
			}

			status := strings.ToUpper(string(test.Status))
			if test.Winner != nil {
				status += " (winner: " + *test.Winner + ")"
			}

			fmt.Fprintf(w, "%s\t%s\t%d\t%.0f%%\t%s\t%s\t%s\n",
				test.Name,
				status,
				len(test.Variants),
				test.TrafficAllocation*100,
				formatNumber(totalImpressions),
				formatNumber(totalConversions),
				test.CreatedAt.Format("2006-01-02"),
			)
		}

		w.Flush()
		return nil
	})
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
