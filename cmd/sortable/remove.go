// ABOUTME: Row remove command
// ABOUTME: Deletes a row and closes the gap it leaves in its group

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/sortable/internal/ui"
	"github.com/spf13/cobra"
)

var removeConfirm bool

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a row",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		row, err := resolveRow(ctx, args[0])
		if err != nil {
			return err
		}

		if !removeConfirm {
			fmt.Fprintf(out, "Remove %s? [y/N] ", ui.FormatRow(row, nil))
			reader := bufio.NewReader(cmd.InOrStdin())
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}

		if err := engine.Remove(ctx, row.ID); err != nil {
			return fmt.Errorf("failed to remove row: %w", err)
		}

		fmt.Fprintln(out, color.GreenString("✓ Removed %s from %s", ui.ShortID(row), groupKey(row)))
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeConfirm, "confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(removeCmd)
}
