package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/growth-engine/growth-engine/internal/engagement"
)

var scoreLegacyTiers bool

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score a behavior snapshot",
	Long: `Score a behavior snapshot and print its classification.

Reads a JSON snapshot from the given file, or from stdin when no file
is given.

Example:
  echo '{"session_duration_seconds":180,"scroll_depth_percent":75}' | growth-engine score`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreLegacyTiers, "legacy-tiers", false, "use legacy 30/70 tier cut points")
	rootCmd.AddCommand(scoreCmd)
}

// scoreInput mirrors BehaviorSnapshot with wire-friendly field names.
type scoreInput struct {
	SessionDurationSeconds int      `json:"session_duration_seconds"`
	ScrollDepthPercent     int      `json:"scroll_depth_percent"`
	SectionsViewed         []string `json:"sections_viewed"`
	ToolsUsed              []string `json:"tools_used"`
	ContentConsumed        []string `json:"content_consumed"`
	CTAsClicked            []string `json:"ctas_clicked"`
	InteractionCount       int      `json:"interaction_count"`
	DeviceType             string   `json:"device_type"`
	TimeOfDay              string   `json:"time_of_day"`
	ReturnVisitor          bool     `json:"return_visitor"`
}

func runScore(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	var in scoreInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("invalid snapshot JSON: %w", err)
	}

	snapshot := engagement.BehaviorSnapshot{
		SessionDurationSeconds: in.SessionDurationSeconds,
		ScrollDepthPercent:     in.ScrollDepthPercent,
		SectionsViewed:         in.SectionsViewed,
		ToolsUsed:              in.ToolsUsed,
		ContentConsumed:        in.ContentConsumed,
		CTAsClicked:            in.CTAsClicked,
		InteractionCount:       in.InteractionCount,
		DeviceType:             engagement.DeviceType(in.DeviceType),
		TimeOfDay:              engagement.TimeOfDay(in.TimeOfDay),
		ReturnVisitor:          in.ReturnVisitor,
	}

	thresholds := engagement.DefaultThresholds()
	if scoreLegacyTiers {
		thresholds = engagement.LegacyTierThresholds()
	}

	scorer := engagement.NewScorer(engagement.DefaultWeights())
	classifier := engagement.NewClassifier(thresholds)

	score := scorer.Score(snapshot)
	level := classifier.Classify(score, snapshot)

	fmt.Printf("SCORE: %d\n", level.Score)
	fmt.Printf("LEVEL: %s\n", level.Level)
	fmt.Printf("TIER: %s\n", level.Tier)
	fmt.Printf("PATTERN: %s\n", level.Pattern)
	fmt.Printf("READINESS: %d\n", level.Readiness)

	return nil
}
