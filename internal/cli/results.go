package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/growth-engine/growth-engine/internal/stats"
	"github.com/growth-engine/growth-engine/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results <name>",
	Short: "Show detailed results for a test",
	Long:  `Show detailed results including conversion rates and confidence intervals.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	name := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		test, err := s.GetTest(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("test '%s' not found", name)
			}
			return fmt.Errorf("failed to get test: %w", err)
		}

		variantStats, err := s.GetVariantStats(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		result := stats.Analyze(test, variantStats)

		fmt.Printf("TEST: %s\n", test.Name)
		fmt.Printf("STATUS: %s\n", test.Status)
		if test.Description != "" {
			fmt.Printf("DESCRIPTION: %s\n", test.Description)
		}
		if test.Winner != nil {
			fmt.Printf("WINNER: %s\n", *test.Winner)
		}
		fmt.Printf("CREATED: %s\n", test.CreatedAt.Format("2006-01-02"))
		fmt.Println()

		fmt.Println("VARIANT           IMPRESSIONS  CONVERSIONS  RATE     95% CI")
		fmt.Println(strings.Repeat("─", 64))

		for _, v := range result.Variants {
			indicator := ""
			if v.ID == result.LeadingVariant && len(result.Variants) > 1 {
				indicator = " ← LEADING"
			}

			ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
			if v.Impressions == 0 {
				ciStr = "N/A"
			}

			// Truncate id if too long
			id := v.ID
			if len(id) > 16 {
				id = id[:13] + "..."
			}

			fmt.Printf("%-16s  %-11d  %-11d  %-7s  %s%s\n",
				id,
				v.Impressions,
				v.Conversions,
				formatPercent(v.Rate),
				ciStr,
				indicator,
			)
		}

		fmt.Println()

		if len(result.Variants) > 1 {
			confPct := result.ConfidenceLevel * 100

			if result.Confident {
				fmt.Printf("Statistical significance: %.1f%% confident \"%s\" is the winner\n", confPct, result.LeadingVariant)
			} else if confPct >= 90 {
				fmt.Printf("Statistical significance: %.1f%% confident \"%s\" beats control (not yet significant)\n", confPct, result.LeadingVariant)
			} else {
				fmt.Println("Statistical significance: Not enough data to determine a winner")
			}
		}

		return nil
	})
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}
