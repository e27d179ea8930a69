// ABOUTME: Position engine that keeps group orderings dense and unique
// ABOUTME: Computes bulk neighbor shifts for top, bottom, move, insert, and remove

package sortable

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/harper/sortable/internal/group"
	"github.com/harper/sortable/internal/models"
	"github.com/harper/sortable/internal/storage"
)

// Engine applies ordering operations through a transactional store.
// It holds no per-row state between calls.
type Engine struct {
	store  storage.Transactor
	cfg    Config
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for operation diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New validates cfg and returns an engine bound to store. When the store
// reports its schema, the field and group columns are checked against it.
func New(store storage.Transactor, cfg Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, invalidConfig("store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, invalidConfig("%w", err)
	}
	if s, ok := store.(storage.SchemaReporter); ok {
		if err := cfg.ValidateSchema(s.Schema()); err != nil {
			return nil, invalidConfig("%w", err)
		}
	}

	e := &Engine{
		store:  store,
		cfg:    cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Start returns the position of the first row in a group.
func (e *Engine) Start() int {
	return e.cfg.Start
}

// Step returns the distance between adjacent rows.
func (e *Engine) Step() int {
	return e.cfg.Step
}

// Conditions returns the group scope of row.
func (e *Engine) Conditions(row *models.Row) models.Conditions {
	return group.Resolve(row, e.cfg.Group)
}

// Last returns the highest position in the group. ok is false when the
// group has no rows.
func (e *Engine) Last(ctx context.Context, conds models.Conditions) (last int, ok bool, err error) {
	err = e.run(ctx, "last", uuid.Nil, func(tx storage.Tx) error {
		var err error
		last, ok, err = e.last(ctx, tx, conds)
		return err
	})
	return last, ok, err
}

// New returns the position a row appended to the group would get.
func (e *Engine) New(ctx context.Context, conds models.Conditions) (int, error) {
	var next int
	err := e.run(ctx, "new", uuid.Nil, func(tx storage.Tx) error {
		var err error
		next, err = e.next(ctx, tx, conds)
		return err
	})
	return next, err
}

// ToTop moves the row to the start of its group.
func (e *Engine) ToTop(ctx context.Context, id uuid.UUID) error {
	return e.run(ctx, "to_top", id, func(tx storage.Tx) error {
		row, err := e.load(ctx, tx, id)
		if err != nil {
			return err
		}
		current := row.Position
		if current == e.cfg.Start {
			return nil
		}

		rng := models.Predicate{Comparison: models.Less, From: current}
		if err := e.shift(ctx, tx, models.Increment, rng, e.Conditions(row)); err != nil {
			return err
		}
		row.SetPosition(e.cfg.Start)
		return e.persist(ctx, tx, row, current)
	})
}

// ToBottom moves the row to the end of its group.
func (e *Engine) ToBottom(ctx context.Context, id uuid.UUID) error {
	return e.run(ctx, "to_bottom", id, func(tx storage.Tx) error {
		row, err := e.load(ctx, tx, id)
		if err != nil {
			return err
		}
		conds := e.Conditions(row)
		current := row.Position
		last, _, err := e.last(ctx, tx, conds)
		if err != nil {
			return err
		}
		if current == last {
			return nil
		}

		rng := models.Predicate{Comparison: models.Greater, From: current}
		if err := e.shift(ctx, tx, models.Decrement, rng, conds); err != nil {
			return err
		}
		row.SetPosition(last)
		return e.persist(ctx, tx, row, current)
	})
}

type moveOptions struct {
	own bool
}

// MoveOption adjusts Move.
type MoveOption func(*moveOptions)

// SkipOwnWrite shifts the neighbors but leaves persisting the row's own
// position to the caller.
func SkipOwnWrite() MoveOption {
	return func(o *moveOptions) { o.own = false }
}

// Move places the row exactly at position, shifting the rows in between by
// one step. Targets outside the group are clamped to its first or last slot.
func (e *Engine) Move(ctx context.Context, id uuid.UUID, position int, opts ...MoveOption) error {
	mo := moveOptions{own: true}
	for _, opt := range opts {
		opt(&mo)
	}
	return e.run(ctx, "move", id, func(tx storage.Tx) error {
		row, err := e.load(ctx, tx, id)
		if err != nil {
			return err
		}
		return e.move(ctx, tx, row, row.Position, position, mo.own)
	})
}

// Remove deletes the row and closes the gap it leaves.
func (e *Engine) Remove(ctx context.Context, id uuid.UUID) error {
	return e.run(ctx, "remove", id, func(tx storage.Tx) error {
		row, err := e.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		rng := models.Predicate{Comparison: models.Greater, From: row.Position}
		return e.shift(ctx, tx, models.Decrement, rng, e.Conditions(row))
	})
}

// BeforeSave prepares the neighbors of row for an insert or update that the
// caller is about to write inside tx. It may adjust row.Position; the caller
// must persist the row afterwards in the same transaction.
func (e *Engine) BeforeSave(ctx context.Context, tx storage.Tx, row *models.Row) error {
	return wrap("before_save", row.ID, e.beforeSave(ctx, tx, row))
}

// Save runs BeforeSave and writes the row in one transaction. On success row
// holds its final position and is marked stored; on failure it is untouched.
func (e *Engine) Save(ctx context.Context, row *models.Row) error {
	work := row.Clone()
	err := e.run(ctx, "save", row.ID, func(tx storage.Tx) error {
		if err := e.beforeSave(ctx, tx, work); err != nil {
			return err
		}
		if err := tx.Save(ctx, work); err != nil {
			return fmt.Errorf("save row: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	*row = *work
	row.MarkStored()
	return nil
}

func (e *Engine) beforeSave(ctx context.Context, tx storage.Tx, row *models.Row) error {
	conds := e.Conditions(row)
	if row.IsNew() {
		return e.place(ctx, tx, row, conds, row.Placed())
	}

	// The snapshot may be stale; the stored row is authoritative under the lock.
	stored, err := e.load(ctx, tx, row.ID)
	if err != nil {
		return err
	}
	old := e.Conditions(stored)
	moved := row.Placed() || row.PositionChanged()
	if !group.Equal(old, conds) {
		rng := models.Predicate{Comparison: models.Greater, From: stored.Position}
		if err := e.shift(ctx, tx, models.Decrement, rng, old); err != nil {
			return err
		}
		e.logger.Debug("row left group", "id", row.ID, "group", group.Key(old))
		return e.place(ctx, tx, row, conds, moved)
	}

	if !moved {
		row.Position = stored.Position
		return nil
	}
	return e.move(ctx, tx, row, stored.Position, row.Position, false)
}

// place positions a row that is entering conds: appended when no position was
// requested, otherwise inserted with the rows at or after it pushed down.
func (e *Engine) place(ctx context.Context, tx storage.Tx, row *models.Row, conds models.Conditions, requested bool) error {
	next, err := e.next(ctx, tx, conds)
	if err != nil {
		return err
	}
	if !requested {
		row.SetPosition(next)
		return nil
	}

	target, err := e.clamp(row.Position, next)
	if err != nil {
		return err
	}
	row.SetPosition(target)
	if target == next {
		return nil
	}
	return e.insertAt(ctx, tx, target, conds)
}

// insertAt makes room at position by pushing every row at or after it down one step.
func (e *Engine) insertAt(ctx context.Context, tx storage.Tx, position int, conds models.Conditions) error {
	rng := models.Predicate{Comparison: models.AtLeast, From: position}
	return e.shift(ctx, tx, models.Increment, rng, conds)
}

func (e *Engine) move(ctx context.Context, tx storage.Tx, row *models.Row, current, target int, own bool) error {
	conds := e.Conditions(row)
	last, _, err := e.last(ctx, tx, conds)
	if err != nil {
		return err
	}
	target, err = e.clamp(target, last)
	if err != nil {
		return err
	}
	if target == current {
		row.SetPosition(current)
		return nil
	}

	step := e.cfg.Step
	if target < current {
		rng := models.Predicate{Comparison: models.Between, From: target, To: current - step}
		err = e.shift(ctx, tx, models.Increment, rng, conds)
	} else {
		rng := models.Predicate{Comparison: models.Between, From: current + step, To: target}
		err = e.shift(ctx, tx, models.Decrement, rng, conds)
	}
	if err != nil {
		return err
	}

	row.SetPosition(target)
	if !own {
		return nil
	}
	return e.persist(ctx, tx, row, current)
}

// clamp checks alignment and bounds position to [start, upper].
func (e *Engine) clamp(position, upper int) (int, error) {
	if !e.cfg.aligned(position) {
		return 0, fmt.Errorf("%w: %d is not start %d plus a multiple of step %d",
			ErrInvalidPosition, position, e.cfg.Start, e.cfg.Step)
	}
	if upper < e.cfg.Start {
		upper = e.cfg.Start
	}
	return min(max(position, e.cfg.Start), upper), nil
}

func (e *Engine) last(ctx context.Context, tx storage.Tx, conds models.Conditions) (int, bool, error) {
	row, err := tx.FindMax(ctx, conds)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find max: %w", err)
	}
	return row.Position, true, nil
}

func (e *Engine) next(ctx context.Context, tx storage.Tx, conds models.Conditions) (int, error) {
	last, ok, err := e.last(ctx, tx, conds)
	if err != nil {
		return 0, err
	}
	if !ok {
		return e.cfg.Start, nil
	}
	return last + e.cfg.Step, nil
}

func (e *Engine) load(ctx context.Context, tx storage.Tx, id uuid.UUID) (*models.Row, error) {
	row, err := tx.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load row: %w", err)
	}
	return row, nil
}

func (e *Engine) shift(ctx context.Context, tx storage.Tx, op models.Op, rng models.Predicate, conds models.Conditions) error {
	s := models.Shift{
		Field: e.cfg.Field,
		Op:    op,
		Delta: e.cfg.Step,
		Range: rng,
		Where: conds,
	}
	n, err := tx.UpdateAll(ctx, s)
	if err != nil {
		return fmt.Errorf("shift rows: %w", err)
	}
	e.logger.Debug("shifted rows", "shift", s.String(), "rows", n)
	return nil
}

func (e *Engine) persist(ctx context.Context, tx storage.Tx, row *models.Row, from int) error {
	if err := tx.Save(ctx, row); err != nil {
		return fmt.Errorf("save row: %w", err)
	}
	e.logger.Debug("moved row", "id", row.ID, "from", from, "to", row.Position)
	return nil
}

func (e *Engine) run(ctx context.Context, op string, id uuid.UUID, fn func(tx storage.Tx) error) error {
	if err := e.store.Atomically(ctx, fn); err != nil {
		err = wrap(op, id, err)
		e.logger.Debug("operation failed", "op", op, "id", id, "err", err)
		return err
	}
	return nil
}
