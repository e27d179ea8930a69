// ABOUTME: Import command for restoring rows from a YAML or JSON backup
// ABOUTME: Restores positions as exported and warns when the result is out of order

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/sortable/internal/storage"
	"github.com/spf13/cobra"
)

var (
	importFormat  string
	importReplace bool
	importConfirm bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import rows from a YAML or JSON backup",
	Long: `Import rows from a backup created with 'sortable export'.

Rows keep the ids and positions they were exported with. Without --replace
they are added to existing data, which can leave duplicate positions; run
'sortable check' afterwards. The import is all or nothing: if any row fails,
the table is left as it was, including with --replace.

Examples:
  sortable import items.yaml
  sortable import items.json --replace --confirm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		filename := args[0]

		data, err := os.ReadFile(filename) //nolint:gosec // user-provided import path
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		format := importFormat
		if format == "" {
			format = "yaml"
			if strings.EqualFold(filepath.Ext(filename), ".json") {
				format = "json"
			}
		}
		backup, err := storage.ParseBackup(data, format)
		if err != nil {
			return fmt.Errorf("failed to parse backup: %w", err)
		}

		if !importConfirm {
			action := "Add"
			if importReplace {
				action = "Replace all rows with"
			}
			fmt.Fprintf(out, "%s %d rows from '%s'? [y/N] ", action, len(backup.Rows), filename)
			reader := bufio.NewReader(cmd.InOrStdin())
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(out, "Canceled.")
				return nil
			}
		}

		n, err := storage.ImportBackup(ctx, repo, backup, importReplace)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}

		fmt.Fprintln(out, color.GreenString("✓ Imported %d rows", n))

		rows, err := repo.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to list rows: %w", err)
		}
		if err := engine.Verify(rows); err != nil {
			fmt.Fprintln(out, color.YellowString("⚠ %v", err))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "backup format (yaml or json; default from file extension)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "delete existing rows first, in the same transaction")
	importCmd.Flags().BoolVar(&importConfirm, "confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(importCmd)
}
