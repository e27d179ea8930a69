// ABOUTME: Migration command for copying rows between storage backends
// ABOUTME: Supports sqlite-to-badger and badger-to-sqlite with safety checks

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/sortable/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate data between storage backends",
	Long: `Migrate all rows of the table from the currently configured backend to a
different backend, preserving ids and positions.

Rows are copied in one transaction. With --force a target that already has
rows is accepted: rows with the same id are overwritten and the others are
kept, so check the reported order afterwards.

Does NOT update the config file unless --switch is given; verify the
migration was successful first.

Examples:
  sortable migrate --to badger
  sortable migrate --to sqlite --data-dir ~/sortable-sqlite
  sortable migrate --to badger --switch`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var (
	migrateTo      string
	migrateDataDir string
	migrateForce   bool
	migrateSwitch  bool
)

func init() {
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "target backend (sqlite or badger)")
	migrateCmd.Flags().StringVar(&migrateDataDir, "data-dir", "", "target data directory (defaults to current config data_dir)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "write into a target table that already has rows, overwriting rows with the same id")
	migrateCmd.Flags().BoolVar(&migrateSwitch, "switch", false, "point the config at the target backend afterwards")
	_ = migrateCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	sourceBackend := cfg.GetBackend()
	targetBackend := migrateTo

	if targetBackend != "sqlite" && targetBackend != "badger" {
		return fmt.Errorf("invalid target backend %q: must be \"sqlite\" or \"badger\"", targetBackend)
	}

	target := *cfg
	if migrateDataDir != "" {
		target.DataDir = migrateDataDir
	}
	if targetBackend == sourceBackend && target.GetDataDir() == cfg.GetDataDir() {
		return fmt.Errorf("target backend %q is the same as the current backend", targetBackend)
	}

	dst, err := target.OpenBackend(targetBackend, tableName, logger)
	if err != nil {
		return fmt.Errorf("open target storage (%s): %w", targetBackend, err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: closing target storage: %v\n", cerr)
		}
	}()

	existing, err := dst.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("check target storage: %w", err)
	}
	if len(existing) > 0 && !migrateForce {
		return fmt.Errorf("target table %q already has %d rows; use --force to write anyway", tableName, len(existing))
	}

	fmt.Fprintln(out, color.YellowString("Migrating table %s:", tableName))
	fmt.Fprintf(out, "  Source:  %s (%s)\n", sourceBackend, cfg.GetDataDir())
	fmt.Fprintf(out, "  Target:  %s (%s)\n", targetBackend, target.GetDataDir())
	fmt.Fprintln(out)

	summary, err := storage.MigrateData(ctx, repo, dst)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, color.GreenString("Migration complete!"))
	fmt.Fprintf(out, "  Rows: %d\n", summary.Rows)
	fmt.Fprintln(out)

	rows, err := dst.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("check target storage: %w", err)
	}
	if err := engine.Verify(rows); err != nil {
		fmt.Fprintln(out, color.YellowString("⚠ target %v", err))
		fmt.Fprintln(out)
	}

	if migrateSwitch {
		target.Backend = targetBackend
		if err := target.Save(); err != nil {
			return fmt.Errorf("update config: %w", err)
		}
		fmt.Fprintln(out, color.GreenString("✓ Config now uses %s", targetBackend))
		return nil
	}

	fmt.Fprintln(out, color.YellowString("Note: config.json was NOT updated. To switch to the new backend, edit:"))
	fmt.Fprintf(out, "  %s\n", cfg.Path())
	fmt.Fprintf(out, "  Set \"backend\": %q", targetBackend)
	if migrateDataDir != "" {
		fmt.Fprintf(out, " and \"data_dir\": %q", migrateDataDir)
	}
	fmt.Fprintln(out)
	return nil
}
