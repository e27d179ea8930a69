// ABOUTME: Order check command
// ABOUTME: Verifies every group has unique, gap-free positions

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harper/sortable/internal/sortable"
	"github.com/harper/sortable/internal/ui"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every group is in gap-free order",
	Long: `Verify that positions in every group are unique, start at the configured
start value, and advance by exactly one step. Exits non-zero when a group
fails, for example after rows were imported or edited outside sortable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := repo.ListAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list rows: %w", err)
		}

		out := cmd.OutOrStdout()
		err = engine.Verify(rows)
		var verr *sortable.ViolationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				fmt.Fprintln(out, ui.FormatViolation(v))
			}
			return fmt.Errorf("%d group(s) out of order", len(verr.Violations))
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, color.GreenString("✓ %d rows in order", len(rows)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
