package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/growth-engine/growth-engine/internal/abtest"
	"github.com/growth-engine/growth-engine/internal/catalog"
	"github.com/growth-engine/growth-engine/internal/config"
	"github.com/growth-engine/growth-engine/internal/engagement"
	"github.com/growth-engine/growth-engine/internal/journey"
	"github.com/growth-engine/growth-engine/internal/logging"
	"github.com/growth-engine/growth-engine/internal/metrics"
	"github.com/growth-engine/growth-engine/internal/selector"
	"github.com/growth-engine/growth-engine/internal/server"
	"github.com/growth-engine/growth-engine/internal/store"
	"github.com/growth-engine/growth-engine/internal/triggers"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the growth-engine HTTP server.

The server provides:
  - Journey tracking and engagement scoring endpoints
  - CTA/content selection and A/B variant assignment
  - Beacon endpoint for impression/click/conversion events
  - Dashboard for viewing results
  - Prometheus metrics and a health check

Example:
  growth-engine serve --port 8080`,
	RunE: runServe,
}

func init() {
	defaultPort := 8080
	if p := os.Getenv("GE_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cmd.Flags().Changed("db") && cfg.DBPath != "" {
		dbPath = cfg.DBPath
	}

	log, err := logging.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	// Open database
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	// Load catalogs and sync declarative tests into the store
	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	ctx := context.Background()
	for _, def := range cat.Tests {
		status := def.Status
		if status == "" {
			status = store.StatusDraft
		}
		if _, err := s.EnsureTest(ctx, def.Name, def.Description, def.Variants, def.TrafficAllocation, status); err != nil {
			return fmt.Errorf("failed to sync test %q: %w", def.Name, err)
		}
	}
	log.Info("catalog loaded",
		"ctas", len(cat.CTAs),
		"content", len(cat.Content),
		"triggers", len(cat.Triggers),
		"tests", len(cat.Tests),
	)

	// Engagement pipeline
	thresholds := engagement.DefaultThresholds()
	if cfg.LegacyTiers {
		thresholds = engagement.LegacyTierThresholds()
	}
	scorer := engagement.NewScorer(engagement.DefaultWeights())
	classifier := engagement.NewClassifier(thresholds)

	journeys := journey.NewStore(journey.WithTTL(time.Duration(cfg.SessionTTLMinutes) * time.Minute))
	journeys.StartSweeper(ctx, time.Minute)
	defer journeys.StopSweeper()

	sel := selector.NewEngine(journeys, scorer, classifier, cat.CTAs, cat.Content)
	sel.Start(ctx)
	defer sel.Stop()

	sink := triggers.SinkFunc(func(sessionID, triggerID string, action triggers.Action) {
		metrics.TriggerFiresTotal.WithLabelValues(triggerID).Inc()
		log.Info("trigger fired",
			"trigger", triggerID,
			"session", sessionID,
			"action", action.Type,
		)
	})
	monitor := triggers.NewMonitor(journeys, scorer, classifier, cat.Triggers, sink)
	monitor.Start(ctx)
	defer monitor.Stop()

	// A/B engine, with optional snapshot restore
	ab := abtest.NewEngine(s)
	if cfg.SnapshotPath != "" {
		snap := abtest.LoadSnapshotFile(cfg.SnapshotPath)
		if err := ab.Import(ctx, snap); err != nil {
			return fmt.Errorf("failed to import snapshot: %w", err)
		}
		log.Info("snapshot imported", "path", cfg.SnapshotPath)
	}

	tokenFile := getTokenFilePath()

	srv := server.New(server.Deps{
		Store:    s,
		Journeys: journeys,
		Selector: sel,
		ABTest:   ab,
		Monitor:  monitor,
		Log:      log,
	}, port, tokenFile)

	log.Info("server starting", "port", port)
	return srv.Start()
}
