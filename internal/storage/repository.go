// ABOUTME: Repository interfaces for ordered row storage
// ABOUTME: Defines the transactional boundary the position engine consumes

package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/harper/sortable/internal/models"
)

// Tx is the persistence boundary used inside one atomic unit of work.
// Implementations must hold an exclusive write lock from the first read
// until the transaction ends.
type Tx interface {
	// Get loads a row, returning ErrNotFound if it does not exist.
	Get(ctx context.Context, id uuid.UUID) (*models.Row, error)
	// FindMax returns the row with the highest position matching conds,
	// or ErrNotFound if no row matches.
	FindMax(ctx context.Context, conds models.Conditions) (*models.Row, error)
	// UpdateAll applies a bulk shift and returns the number of rows changed.
	UpdateAll(ctx context.Context, shift models.Shift) (int64, error)
	// Save inserts or updates a row.
	Save(ctx context.Context, row *models.Row) error
	// Delete removes a row, returning ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteAll removes every row of the table and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
}

// Transactor runs fn atomically: every write made through tx commits
// together if fn returns nil and is rolled back otherwise.
type Transactor interface {
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// SchemaReporter is implemented by stores that know their physical schema.
type SchemaReporter interface {
	Schema() models.Schema
}

// Repository combines the transactional boundary with read and
// lifecycle operations used by the CLI, MCP server, and tooling.
type Repository interface {
	Transactor
	SchemaReporter
	Get(ctx context.Context, id uuid.UUID) (*models.Row, error)
	// List returns rows matching conds ordered by position.
	List(ctx context.Context, conds models.Conditions) ([]*models.Row, error)
	// ListAll returns every row ordered by position.
	ListAll(ctx context.Context) ([]*models.Row, error)
	// ResolveID expands a full UUID or a unique UUID prefix.
	ResolveID(ctx context.Context, ref string) (uuid.UUID, error)
	// Insert writes a row as-is without touching its neighbors.
	Insert(ctx context.Context, row *models.Row) error
	Reset(ctx context.Context) error
	Close() error
}

// Compile-time interface checks.
var (
	_ Repository = (*SQLiteStore)(nil)
	_ Repository = (*BadgerStore)(nil)
)
