// ABOUTME: Data migration between storage backends
// ABOUTME: Copies rows with their positions from source to destination repository

package storage

import (
	"context"
	"fmt"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Rows int
}

// MigrateData copies every row from src to dst in one destination
// transaction, preserving ids and positions. A destination row with the same
// id is overwritten; destination rows the source does not have are kept.
func MigrateData(ctx context.Context, src, dst Repository) (*MigrateSummary, error) {
	if src.Schema().Field != dst.Schema().Field {
		return nil, fmt.Errorf("%w: source field %q, destination field %q",
			ErrSchema, src.Schema().Field, dst.Schema().Field)
	}

	rows, err := src.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source rows: %w", err)
	}

	err = dst.Atomically(ctx, func(tx Tx) error {
		for _, row := range rows {
			if err := tx.Save(ctx, row.Clone()); err != nil {
				return fmt.Errorf("save row %s: %w", row.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &MigrateSummary{Rows: len(rows)}, nil
}
