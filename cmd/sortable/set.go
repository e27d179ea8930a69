// ABOUTME: Row update command
// ABOUTME: Changes column values and optionally the position, moving rows across groups

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harper/sortable/internal/models"
	"github.com/harper/sortable/internal/ui"
	"github.com/spf13/cobra"
)

var setAt int

var setCmd = &cobra.Command{
	Use:   "set <id> [column=value]...",
	Short: "Update a row's values or position",
	Long: `Update column values of a row. An empty value clears the column.
Changing a group column moves the row into the other group: the gap it
leaves is closed and it is appended there, or inserted with --at.

Examples:
  sortable set 3f2a title="buy oat milk"
  sortable set 3f2a list=done
  sortable set 3f2a list=done --at 1
  sortable set 3f2a --at 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		values, err := models.ParseAssignments(args[1:])
		if err != nil {
			return err
		}
		if len(values) == 0 && !cmd.Flags().Changed("at") {
			return fmt.Errorf("nothing to change: pass column=value or --at")
		}

		row, err := resolveRow(ctx, args[0])
		if err != nil {
			return err
		}
		fromGroup, fromPos := groupKey(row), row.Position

		for col, value := range values {
			if value == "" {
				row.Unset(col)
			} else {
				row.Set(col, value)
			}
		}
		if err := models.ValidateValues(row.Values); err != nil {
			return err
		}
		if cmd.Flags().Changed("at") {
			row.SetPosition(setAt)
		}

		if err := engine.Save(ctx, row); err != nil {
			return fmt.Errorf("failed to update row: %w", err)
		}

		out := cmd.OutOrStdout()
		if to := groupKey(row); to != fromGroup {
			fmt.Fprintln(out, color.GreenString("✓ Moved %s from %s to %s at position %d", ui.ShortID(row), fromGroup, to, row.Position))
		} else if row.Position != fromPos {
			fmt.Fprintln(out, color.GreenString("✓ Updated %s, moved from %d to %d", ui.ShortID(row), fromPos, row.Position))
		} else {
			fmt.Fprintln(out, color.GreenString("✓ Updated %s", ui.ShortID(row)))
		}
		fmt.Fprintln(out, ui.FormatRow(row, nil))
		return nil
	},
}

func init() {
	setCmd.Flags().IntVar(&setAt, "at", 0, "move the row to this position")

	rootCmd.AddCommand(setCmd)
}
