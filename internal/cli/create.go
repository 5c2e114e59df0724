package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/growth-engine/growth-engine/internal/store"
)

func init() {
	rootCmd.AddCommand(newCreateCmd())
}

func newCreateCmd() *cobra.Command {
	var (
		variants    string
		traffic     float64
		description string
		activate    bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new A/B test",
		Long: `Create a new A/B test with the specified name and weighted variants.

Variants are given as comma-separated id:weight pairs. Weights should sum
to 1; an id without a weight gets an equal share of the remainder.

Examples:
  growth-engine create cta-copy --variants "control:0.5,urgency:0.5"
  growth-engine create hero --variants "control,variant-b" --traffic 0.5
  growth-engine create cta-copy --variants "control:0.25,curiosity:0.25,urgency:0.25,social-proof:0.25" --activate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testName := args[0]

			if variants == "" {
				entered, err := promptVariants()
				if err != nil {
					return err
				}
				variants = entered
			}

			variantList, err := parseVariants(variants)
			if err != nil {
				return err
			}
			if len(variantList) < 2 {
				return fmt.Errorf("need at least 2 variants. Example: --variants \"control:0.5,challenger:0.5\"")
			}
			if traffic < 0 || traffic > 1 {
				return fmt.Errorf("traffic allocation must be in [0,1]")
			}

			return withStore(func(s *store.SQLiteStore) error {
				ctx := context.Background()

				test, err := s.CreateTest(ctx, testName, description, variantList, traffic)
				if err != nil {
					return fmt.Errorf("failed to create test: %w", err)
				}

				if activate {
					if err := s.UpdateTestStatus(ctx, testName, store.StatusActive, nil); err != nil {
						return fmt.Errorf("failed to activate test: %w", err)
					}
					test.Status = store.StatusActive
				}

				fmt.Printf("Created test '%s' (%s) with %d variants:\n", test.Name, test.Status, len(test.Variants))
				for _, v := range test.Variants {
					fmt.Printf("  %s (weight %.2f)\n", v.ID, v.Weight)
				}
				fmt.Printf("  Traffic allocation: %.0f%%\n", test.TrafficAllocation*100)
				if !activate {
					fmt.Printf("\nActivate it with: growth-engine status %s active\n", test.Name)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&variants, "variants", "v", "", "comma-separated id:weight pairs (prompted if omitted)")
	cmd.Flags().Float64VarP(&traffic, "traffic", "t", 1.0, "traffic allocation 0-1")
	cmd.Flags().StringVarP(&description, "description", "d", "", "test description")
	cmd.Flags().BoolVar(&activate, "activate", false, "activate the test immediately")

	return cmd
}

// parseVariants parses "id:weight,id:weight" pairs. Ids without a weight
// split the remaining share equally.
func parseVariants(raw string) ([]store.Variant, error) {
	parts := strings.Split(raw, ",")
	variants := make([]store.Variant, 0, len(parts))
	assigned := 0.0
	unweighted := 0

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, weightStr, hasWeight := strings.Cut(part, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("variant with empty id in %q", raw)
		}
		v := store.Variant{ID: id}
		if hasWeight {
			w, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid weight for variant %q: %w", id, err)
			}
			if w < 0 || w > 1 {
				return nil, fmt.Errorf("variant %q weight %v out of [0,1]", id, w)
			}
			v.Weight = w
			assigned += w
		} else {
			unweighted++
		}
		variants = append(variants, v)
	}

	if unweighted > 0 {
		remainder := 1.0 - assigned
		if remainder < 0 {
			remainder = 0
		}
		share := remainder / float64(unweighted)
		for i := range variants {
			if variants[i].Weight == 0 && share > 0 {
				variants[i].Weight = share
			}
		}
	}

	return variants, nil
}

func promptVariants() (string, error) {
	prompt := promptui.Prompt{
		Label: "Variants (id:weight, comma-separated)",
		Validate: func(input string) error {
			parsed, err := parseVariants(input)
			if err != nil {
				return err
			}
			if len(parsed) < 2 {
				return fmt.Errorf("need at least 2 variants")
			}
			return nil
		},
	}
	return prompt.Run()
}
