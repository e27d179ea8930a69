// ABOUTME: Reordering commands
// ABOUTME: Moves a row to an exact position, the top, or the bottom of its group

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/harper/sortable/internal/ui"
	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:     "move <id> <position>",
	Aliases: []string{"mv"},
	Short:   "Move a row to a position",
	Long: `Move a row to an exact position within its group. The rows in between
shift by one step. Positions past either end are clamped to the first or
last slot.

Examples:
  sortable move 3f2a 1
  sortable move 3f2a 5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[1], err)
		}
		return reorder(cmd, args[0], func(ctx context.Context, id uuid.UUID) error {
			return engine.Move(ctx, id, position)
		})
	},
}

var topCmd = &cobra.Command{
	Use:   "top <id>",
	Short: "Move a row to the top of its group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reorder(cmd, args[0], func(ctx context.Context, id uuid.UUID) error {
			return engine.ToTop(ctx, id)
		})
	},
}

var bottomCmd = &cobra.Command{
	Use:   "bottom <id>",
	Short: "Move a row to the bottom of its group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reorder(cmd, args[0], func(ctx context.Context, id uuid.UUID) error {
			return engine.ToBottom(ctx, id)
		})
	},
}

// reorder resolves ref, applies op, and reports where the row ended up.
func reorder(cmd *cobra.Command, ref string, op func(context.Context, uuid.UUID) error) error {
	ctx := cmd.Context()
	row, err := resolveRow(ctx, ref)
	if err != nil {
		return err
	}
	from := row.Position

	if err := op(ctx, row.ID); err != nil {
		return fmt.Errorf("failed to move row: %w", err)
	}

	moved, err := reload(ctx, row.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if moved.Position == from {
		fmt.Fprintln(out, color.New(color.Faint).Sprintf("%s already at position %d", ui.ShortID(moved), from))
		return nil
	}
	fmt.Fprintln(out, color.GreenString("✓ Moved %s from %d to %d", ui.ShortID(moved), from, moved.Position))
	return nil
}

func init() {
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(bottomCmd)
}
