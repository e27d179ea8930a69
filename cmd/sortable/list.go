// ABOUTME: Row list command
// ABOUTME: Prints rows in position order, one heading per group

package main

import (
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/harper/sortable/internal/group"
	"github.com/harper/sortable/internal/models"
	"github.com/harper/sortable/internal/ui"
	"github.com/spf13/cobra"
)

var listCreated bool

var listCmd = &cobra.Command{
	Use:     "list [column=value]...",
	Aliases: []string{"ls"},
	Short:   "List rows in order",
	Long: `List rows grouped and in position order. Pass group column values to
show one group only; a group column left out matches rows where it is empty.

Examples:
  sortable list
  sortable list list=inbox`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var rows []*models.Row
		if len(args) > 0 {
			values, err := models.ParseAssignments(args)
			if err != nil {
				return err
			}
			for col := range values {
				if !slices.Contains(table.Group, col) {
					return fmt.Errorf("%q is not a group column (group columns: %v)", col, table.Group)
				}
			}
			rows, err = repo.List(ctx, group.FromValues(values, table.Group))
			if err != nil {
				return fmt.Errorf("failed to list rows: %w", err)
			}
		} else {
			var err error
			rows, err = repo.ListAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to list rows: %w", err)
			}
		}

		if len(rows) == 0 {
			fmt.Fprintln(out, "No rows yet. Use 'sortable add' to add one.")
			return nil
		}

		var order []string
		groups := map[string][]*models.Row{}
		for _, row := range rows {
			k := groupKey(row)
			if _, ok := groups[k]; !ok {
				order = append(order, k)
			}
			groups[k] = append(groups[k], row)
		}

		for i, k := range order {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, ui.FormatGroup(k, len(groups[k])))
			for _, row := range groups[k] {
				line := ui.FormatRow(row, table.Group)
				if listCreated {
					line += "  " + color.New(color.Faint).Sprint(ui.FormatRelativeTime(row.CreatedAt))
				}
				fmt.Fprintln(out, line)
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listCreated, "created", false, "show when each row was added")

	rootCmd.AddCommand(listCmd)
}
