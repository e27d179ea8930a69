// ABOUTME: Export command for generating YAML, JSON, and markdown output
// ABOUTME: YAML and JSON are restorable backups; markdown is a readable report

package main

import (
	"fmt"
	"os"

	"github.com/harper/sortable/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"e"},
	Short:   "Export rows in various formats",
	Long: `Export every row of the table as YAML, JSON, or Markdown.

YAML and JSON exports can be restored with 'sortable import'.

Examples:
  sortable export
  sortable export --format json --output items.json
  sortable export --format markdown`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var data []byte
		var err error
		switch exportFormat {
		case "yaml":
			data, err = storage.ExportToYAML(ctx, repo)
		case "json":
			data, err = storage.ExportToJSON(ctx, repo)
		case "markdown":
			data, err = storage.ExportToMarkdown(ctx, repo, groupKey)
		default:
			return fmt.Errorf("unsupported format: %s (use 'yaml', 'json', or 'markdown')", exportFormat)
		}
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", exportFormat, err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for data export files
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s\n", exportFormat, exportOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "yaml", "output format (yaml, json, markdown)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}
