// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config, opens the table's storage backend, and builds the engine

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harper/sortable/internal/config"
	"github.com/harper/sortable/internal/group"
	"github.com/harper/sortable/internal/models"
	"github.com/harper/sortable/internal/sortable"
	"github.com/harper/sortable/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	table   config.TableConfig
	repo    storage.Repository
	engine  *sortable.Engine
	logger  *log.Logger
	verbose bool

	configPath string
	tableName  string
)

var rootCmd = &cobra.Command{
	Use:   "sortable",
	Short: "Dense ordering for grouped rows",
	Long: `
███████╗ ██████╗ ██████╗ ████████╗ █████╗ ██████╗ ██╗     ███████╗
██╔════╝██╔═══██╗██╔══██╗╚══██╔══╝██╔══██╗██╔══██╗██║     ██╔════╝
███████╗██║   ██║██████╔╝   ██║   ███████║██████╔╝██║     █████╗
╚════██║██║   ██║██╔══██╗   ██║   ██╔══██║██╔══██╗██║     ██╔══╝
███████║╚██████╔╝██║  ██║   ██║   ██║  ██║██████╔╝███████╗███████╗
╚══════╝ ╚═════╝ ╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝╚═════╝ ╚══════╝╚══════╝

       Keep rows in gap-free order, one list at a time

Examples:
  sortable add list=inbox title="buy milk"
  sortable add list=inbox title="call mom" --at 1
  sortable list list=inbox
  sortable move 3f2a 1
  sortable top 3f2a
  sortable check`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/sortable/config.json)")
	rootCmd.PersistentFlags().StringVarP(&tableName, "table", "t", config.DefaultTable, "table to operate on")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine diagnostics to stderr")
}

// newLogger returns the diagnostics logger; debug output only with --verbose.
func newLogger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "sortable",
		ReportTimestamp: verbose,
	})
	if verbose {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.WarnLevel)
	}
	return l
}

// setup loads config and opens storage and the engine for the selected table.
func setup() error {
	logger = newLogger()

	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(config.ExpandPath(configPath))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	table, err = cfg.Table(tableName)
	if err != nil {
		return err
	}

	repo, err = cfg.OpenStorage(tableName, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage (%s): %w", cfg.GetBackend(), err)
	}

	engine, err = sortable.New(repo, table.Engine(), sortable.WithLogger(logger))
	if err != nil {
		_ = repo.Close()
		repo = nil
		return err
	}
	logger.Debug("opened table", "table", tableName, "backend", cfg.GetBackend(), "dir", cfg.GetDataDir())
	return nil
}

// teardown closes storage. Safe to call more than once.
func teardown() error {
	if repo == nil {
		return nil
	}
	err := repo.Close()
	repo = nil
	engine = nil
	return err
}

// resolveRow expands an id or unique prefix and loads the row.
func resolveRow(ctx context.Context, ref string) (*models.Row, error) {
	id, err := repo.ResolveID(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("row '%s' not found: %w", ref, err)
	}
	row, err := repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("row '%s' not found: %w", ref, err)
	}
	return row, nil
}

// reload fetches the stored state of id after an engine operation.
func reload(ctx context.Context, id uuid.UUID) (*models.Row, error) {
	row, err := repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload row: %w", err)
	}
	return row, nil
}

// groupKey labels the group a row belongs to.
func groupKey(row *models.Row) string {
	return group.Key(engine.Conditions(row))
}
