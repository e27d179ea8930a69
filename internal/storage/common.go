// ABOUTME: Helpers shared by storage backends
// ABOUTME: Schema checks, id prefix validation, and deterministic row ordering

package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/harper/sortable/internal/models"
)

// checkShift rejects shifts that reference columns outside the schema.
func checkShift(schema models.Schema, shift models.Shift) error {
	if err := shift.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if shift.Field != schema.Field {
		return fmt.Errorf("%w: shift field %q, table field %q", ErrSchema, shift.Field, schema.Field)
	}
	return checkConditions(schema, shift.Where)
}

func checkConditions(schema models.Schema, conds models.Conditions) error {
	for _, c := range conds {
		if !schema.HasColumn(c.Column) {
			return fmt.Errorf("%w: unknown column %q", ErrSchema, c.Column)
		}
	}
	return nil
}

func checkRow(schema models.Schema, row *models.Row) error {
	if err := schema.CheckValues(row.Values); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return nil
}

// insertTx saves row inside tx unless its id is already stored.
func insertTx(ctx context.Context, tx Tx, row *models.Row) error {
	if _, err := tx.Get(ctx, row.ID); err == nil {
		return fmt.Errorf("insert row %s: %w", row.ID, ErrExists)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return tx.Save(ctx, row)
}

// validRef reports whether ref looks like a (partial) UUID.
func validRef(ref string) bool {
	if ref == "" || len(ref) > 36 {
		return false
	}
	for _, r := range ref {
		if !strings.ContainsRune("0123456789abcdef-", r) {
			return false
		}
	}
	return true
}

// sortRows orders by position, breaking ties by creation time and id.
func sortRows(rows []*models.Row) {
	slices.SortStableFunc(rows, func(a, b *models.Row) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
