// ABOUTME: Badger key-value storage implementation for ordered rows
// ABOUTME: Stores each row as JSON under a per-table key prefix

package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/harper/sortable/internal/models"
)

// BadgerStore implements Repository on an embedded Badger database.
// Writers are serialized by mu; Badger's conflict detection rejects any
// transaction that raced a commit from another handle.
type BadgerStore struct {
	db     *badger.DB
	schema models.Schema
	prefix []byte
	mu     sync.Mutex
}

// record is the stored form of a row.
type record struct {
	ID        uuid.UUID         `json:"id"`
	Position  int               `json:"position"`
	Values    map[string]string `json:"values,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewBadgerStore opens a Badger database in dir. An empty dir opens an
// in-memory database. Badger's own logging goes to logger when non-nil.
func NewBadgerStore(dir string, schema models.Schema, logger *log.Logger) (*BadgerStore, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{
		db:     db,
		schema: schema,
		prefix: []byte("row:" + schema.Table + ":"),
	}, nil
}

// Schema returns the table schema.
func (s *BadgerStore) Schema() models.Schema {
	return s.schema
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Reset deletes every row of the table.
func (s *BadgerStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DropPrefix(s.prefix)
}

// Atomically runs fn inside one read-write Badger transaction.
func (s *BadgerStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn, s: s})
	})
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return err
}

// Get retrieves a row by id outside of a transaction.
func (s *BadgerStore) Get(ctx context.Context, id uuid.UUID) (*models.Row, error) {
	var row *models.Row
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		row, err = (&badgerTx{txn: txn, s: s}).Get(ctx, id)
		return err
	})
	return row, err
}

// List returns the rows of one group ordered by position.
func (s *BadgerStore) List(ctx context.Context, conds models.Conditions) ([]*models.Row, error) {
	if err := checkConditions(s.schema, conds); err != nil {
		return nil, err
	}
	var rows []*models.Row
	err := s.db.View(func(txn *badger.Txn) error {
		return (&badgerTx{txn: txn, s: s}).scan(ctx, func(row *models.Row) error {
			if conds.Matches(row.Values) {
				rows = append(rows, row)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortRows(rows)
	return rows, nil
}

// ListAll returns every row ordered by position.
func (s *BadgerStore) ListAll(ctx context.Context) ([]*models.Row, error) {
	return s.List(ctx, nil)
}

// ResolveID expands a full id or a unique id prefix.
func (s *BadgerStore) ResolveID(_ context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	ref = strings.ToLower(ref)
	if !validRef(ref) {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", ref, ErrNotFound)
	}

	var matches []uuid.UUID
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := append(bytes.Clone(s.prefix), ref...)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(matches) < 2; it.Next() {
			id, err := uuid.ParseBytes(bytes.TrimPrefix(it.Item().Key(), s.prefix))
			if err != nil {
				return fmt.Errorf("parse key: %w", err)
			}
			matches = append(matches, id)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("id %q: %w", ref, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return uuid.Nil, fmt.Errorf("id %q: %w", ref, ErrAmbiguousID)
	}
}

// Insert writes a row without adjusting neighbors. Used by import and migrate.
func (s *BadgerStore) Insert(ctx context.Context, row *models.Row) error {
	err := s.Atomically(ctx, func(tx Tx) error {
		return insertTx(ctx, tx, row)
	})
	if err != nil {
		return err
	}
	row.MarkStored()
	return nil
}

type badgerTx struct {
	txn *badger.Txn
	s   *BadgerStore
}

func (t *badgerTx) key(id uuid.UUID) []byte {
	return append(bytes.Clone(t.s.prefix), id.String()...)
}

func (t *badgerTx) Get(_ context.Context, id uuid.UUID) (*models.Row, error) {
	item, err := t.txn.Get(t.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get row: %w", err)
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("read row: %w", err)
	}
	return decodeRecord(data)
}

func (t *badgerTx) FindMax(ctx context.Context, conds models.Conditions) (*models.Row, error) {
	if err := checkConditions(t.s.schema, conds); err != nil {
		return nil, err
	}
	var best *models.Row
	err := t.scan(ctx, func(row *models.Row) error {
		if conds.Matches(row.Values) && (best == nil || row.Position > best.Position) {
			best = row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (t *badgerTx) UpdateAll(ctx context.Context, shift models.Shift) (int64, error) {
	if err := checkShift(t.s.schema, shift); err != nil {
		return 0, err
	}
	// Collect first: writing while iterating would surface pending writes.
	var matched []*models.Row
	err := t.scan(ctx, func(row *models.Row) error {
		if shift.Where.Matches(row.Values) && shift.Range.Matches(row.Position) {
			matched = append(matched, row)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, row := range matched {
		row.Position = shift.Apply(row.Position)
		if err := t.put(row); err != nil {
			return 0, err
		}
	}
	return int64(len(matched)), nil
}

func (t *badgerTx) Save(_ context.Context, row *models.Row) error {
	if err := checkRow(t.s.schema, row); err != nil {
		return err
	}
	return t.put(row)
}

func (t *badgerTx) Delete(_ context.Context, id uuid.UUID) error {
	key := t.key(id)
	if _, err := t.txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	} else if err != nil {
		return fmt.Errorf("get row: %w", err)
	}
	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	return nil
}

func (t *badgerTx) DeleteAll(ctx context.Context) (int64, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := t.txn.NewIterator(opts)

	// Collect first: deleting while iterating would surface pending writes.
	var keys [][]byte
	for it.Seek(t.s.prefix); it.ValidForPrefix(t.s.prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			it.Close()
			return 0, err
		}
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := t.txn.Delete(key); err != nil {
			return 0, fmt.Errorf("delete row: %w", err)
		}
	}
	return int64(len(keys)), nil
}

func (t *badgerTx) put(row *models.Row) error {
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	data, err := json.Marshal(record{
		ID:        row.ID,
		Position:  row.Position,
		Values:    row.Values,
		CreatedAt: createdAt,
	})
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	if err := t.txn.Set(t.key(row.ID), data); err != nil {
		return fmt.Errorf("set row: %w", err)
	}
	return nil
}

// scan visits every row of the table.
func (t *badgerTx) scan(ctx context.Context, fn func(*models.Row) error) error {
	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(t.s.prefix); it.ValidForPrefix(t.s.prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		row, err := decodeRecord(data)
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func decodeRecord(data []byte) (*models.Row, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	if rec.Values == nil {
		rec.Values = map[string]string{}
	}
	row := &models.Row{
		ID:        rec.ID,
		Position:  rec.Position,
		Values:    rec.Values,
		CreatedAt: rec.CreatedAt,
	}
	row.MarkStored()
	return row, nil
}

// badgerLogger adapts a charm logger to badger.Logger.
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Errorf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warnf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debugf(strings.TrimSpace(format), args...)
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debugf(strings.TrimSpace(format), args...)
}
