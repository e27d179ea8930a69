// ABOUTME: Row add command
// ABOUTME: Appends a row to its group or inserts it at a requested position

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harper/sortable/internal/models"
	"github.com/harper/sortable/internal/ui"
	"github.com/spf13/cobra"
)

var addAt int

var addCmd = &cobra.Command{
	Use:     "add <column=value>...",
	Aliases: []string{"a"},
	Short:   "Add a row",
	Long: `Add a row with the given column values. The row goes to the end of its
group unless --at names a position, in which case the rows at and after that
position move down one step.

Examples:
  sortable add list=inbox title="buy milk"
  sortable add list=inbox title="call mom" --at 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := models.ParseAssignments(args)
		if err != nil {
			return err
		}
		if err := models.ValidateValues(values); err != nil {
			return err
		}

		var row *models.Row
		if cmd.Flags().Changed("at") {
			row = models.NewRowAt(values, addAt)
		} else {
			row = models.NewRow(values)
		}
		if err := engine.Save(cmd.Context(), row); err != nil {
			return fmt.Errorf("failed to add row: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.GreenString("✓ Added %s to %s at position %d", ui.ShortID(row), groupKey(row), row.Position))
		fmt.Fprintln(out, ui.FormatRow(row, table.Group))
		return nil
	},
}

func init() {
	addCmd.Flags().IntVar(&addAt, "at", 0, "insert at this position instead of appending")

	rootCmd.AddCommand(addCmd)
}
