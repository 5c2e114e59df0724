package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/growth-engine/growth-engine/internal/abtest"
	"github.com/growth-engine/growth-engine/internal/store"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import assignment snapshots",
	Long: `Export or import visitor-to-variant assignment snapshots.

Snapshots carry sticky assignments (and traffic exclusions) between
databases. On import, existing assignments always win.`,
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write current assignments to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotExport,
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load assignments from a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotImport,
}

func init() {
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotExport(cmd *cobra.Command, args []string) error {
	path := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		snap, err := abtest.NewEngine(s).Export(ctx)
		if err != nil {
			return fmt.Errorf("failed to export assignments: %w", err)
		}

		if err := abtest.WriteSnapshotFile(path, snap); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}

		visitors := len(snap.Assignments)
		excluded := len(snap.Excluded)
		fmt.Printf("Exported assignments for %d visitors (%d with exclusions) to %s\n", visitors, excluded, path)
		return nil
	})
}

func runSnapshotImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		snap := abtest.LoadSnapshotFile(path)
		if len(snap.Assignments) == 0 && len(snap.Excluded) == 0 {
			return fmt.Errorf("snapshot %s is empty or unreadable", path)
		}

		if err := abtest.NewEngine(s).Import(ctx, snap); err != nil {
			return fmt.Errorf("failed to import snapshot: %w", err)
		}

		fmt.Printf("Imported assignments for %d visitors from %s\n", len(snap.Assignments), path)
		return nil
	})
}
