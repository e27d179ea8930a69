// ABOUTME: SQLite storage implementation for ordered rows
// ABOUTME: Provides local persistence using the pure Go SQLite driver

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/sortable/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository for one table of a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	schema models.Schema
}

// NewSQLiteStore opens the database at path and ensures the table described
// by schema exists. Creates the directory and database file if needed.
//
// Writes within Atomically take the database write lock with BEGIN IMMEDIATE
// before the first read, so concurrent movers never act on stale positions.
func NewSQLiteStore(path string, schema models.Schema) (*SQLiteStore, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil { //nolint:gosec // 0750 is appropriate for user data directory
		return nil, fmt.Errorf("create directory: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: SQLite allows a single writer, and an open transaction
	// must not race reads issued on a second connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, path: path, schema: schema}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate creates the table and adds any configured columns it lacks.
func (s *SQLiteStore) migrate() error {
	t := s.schema.Table
	cols := []string{
		"id TEXT PRIMARY KEY",
		quote(s.schema.Field) + " INTEGER NOT NULL",
	}
	for _, col := range s.schema.Columns {
		cols = append(cols, quote(col)+" TEXT")
	}
	cols = append(cols, "created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP")

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quote(t), strings.Join(cols, ",\n\t"))
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	existing, err := s.tableColumns()
	if err != nil {
		return err
	}
	for _, col := range s.schema.Columns {
		if existing[col] {
			continue
		}
		if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", quote(t), quote(col))); err != nil {
			return fmt.Errorf("add column %s: %w", col, err)
		}
	}
	if !existing[s.schema.Field] {
		return fmt.Errorf("%w: table %q has no %q column", ErrSchema, t, s.schema.Field)
	}

	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		quote("idx_"+t+"_"+s.schema.Field), quote(t), quote(s.schema.Field))
	if _, err := s.db.Exec(idx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (s *SQLiteStore) tableColumns() (map[string]bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quote(s.schema.Table)))
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

// Schema returns the table schema.
func (s *SQLiteStore) Schema() models.Schema {
	return s.schema
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Reset deletes every row of the table.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM "+quote(s.schema.Table))
	return err
}

// Atomically runs fn inside one immediate transaction.
func (s *SQLiteStore) Atomically(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&sqliteTx{q: sqlTx, s: s}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a row by id outside of a transaction.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (*models.Row, error) {
	return (&sqliteTx{q: s.db, s: s}).Get(ctx, id)
}

// List returns the rows of one group ordered by position.
func (s *SQLiteStore) List(ctx context.Context, conds models.Conditions) ([]*models.Row, error) {
	if err := checkConditions(s.schema, conds); err != nil {
		return nil, err
	}
	where, args := whereClause(conds)
	query := s.selectSQL() + where + " ORDER BY " + quote(s.schema.Field) + ", created_at, id"
	return s.queryRows(ctx, s.db, query, args...)
}

// ListAll returns every row ordered by position.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]*models.Row, error) {
	return s.List(ctx, nil)
}

// ResolveID expands a full id or a unique id prefix.
func (s *SQLiteStore) ResolveID(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	ref = strings.ToLower(ref)
	if !validRef(ref) {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", ref, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM "+quote(s.schema.Table)+" WHERE id LIKE ? LIMIT 2", ref+"%")
	if err != nil {
		return uuid.Nil, fmt.Errorf("query ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []string
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return uuid.Nil, fmt.Errorf("scan id: %w", err)
		}
		matches = append(matches, idStr)
	}
	if err := rows.Err(); err != nil {
		return uuid.Nil, err
	}
	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("id %q: %w", ref, ErrNotFound)
	case 1:
		return uuid.Parse(matches[0])
	default:
		return uuid.Nil, fmt.Errorf("id %q: %w", ref, ErrAmbiguousID)
	}
}

// Insert writes a row without adjusting neighbors. Used by import and migrate.
func (s *SQLiteStore) Insert(ctx context.Context, row *models.Row) error {
	err := s.Atomically(ctx, func(tx Tx) error {
		return insertTx(ctx, tx, row)
	})
	if err != nil {
		return err
	}
	row.MarkStored()
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteTx struct {
	q querier
	s *SQLiteStore
}

func (t *sqliteTx) Get(ctx context.Context, id uuid.UUID) (*models.Row, error) {
	row := t.q.QueryRowContext(ctx, t.s.selectSQL()+" WHERE id = ?", id.String())
	return t.s.scanRow(row)
}

func (t *sqliteTx) FindMax(ctx context.Context, conds models.Conditions) (*models.Row, error) {
	if err := checkConditions(t.s.schema, conds); err != nil {
		return nil, err
	}
	where, args := whereClause(conds)
	query := t.s.selectSQL() + where + " ORDER BY " + quote(t.s.schema.Field) + " DESC LIMIT 1"
	return t.s.scanRow(t.q.QueryRowContext(ctx, query, args...))
}

func (t *sqliteTx) UpdateAll(ctx context.Context, shift models.Shift) (int64, error) {
	if err := checkShift(t.s.schema, shift); err != nil {
		return 0, err
	}
	field := quote(shift.Field)
	op := "+"
	if shift.Op == models.Decrement {
		op = "-"
	}

	// Placeholders bind in textual order: delta, group conditions, range.
	query := fmt.Sprintf("UPDATE %s SET %s = %s %s ?", quote(t.s.schema.Table), field, field, op)
	args := []any{shift.Delta}
	where, condArgs := whereClause(shift.Where)
	args = append(args, condArgs...)
	pred, predArgs := rangeClause(field, shift.Range)
	if where == "" {
		where = " WHERE " + pred
	} else {
		where += " AND " + pred
	}
	args = append(args, predArgs...)

	result, err := t.q.ExecContext(ctx, query+where, args...)
	if err != nil {
		return 0, fmt.Errorf("update rows: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (t *sqliteTx) Save(ctx context.Context, row *models.Row) error {
	if err := checkRow(t.s.schema, row); err != nil {
		return err
	}
	query, args := t.s.upsertSQL(row)
	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save row: %w", err)
	}
	return nil
}

func (t *sqliteTx) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := t.q.ExecContext(ctx, "DELETE FROM "+quote(t.s.schema.Table)+" WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("delete row: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *sqliteTx) DeleteAll(ctx context.Context) (int64, error) {
	result, err := t.q.ExecContext(ctx, "DELETE FROM "+quote(t.s.schema.Table))
	if err != nil {
		return 0, fmt.Errorf("delete rows: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) selectSQL() string {
	cols := make([]string, 0, len(s.schema.Columns)+3)
	cols = append(cols, "id", quote(s.schema.Field))
	for _, col := range s.schema.Columns {
		cols = append(cols, quote(col))
	}
	cols = append(cols, "created_at")
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + quote(s.schema.Table)
}

// upsertSQL builds an INSERT that replaces every column of an existing row with the same id.
func (s *SQLiteStore) upsertSQL(row *models.Row) (string, []any) {
	cols := []string{"id", quote(s.schema.Field)}
	args := []any{row.ID.String(), row.Position}
	for _, col := range s.schema.Columns {
		cols = append(cols, quote(col))
		if v, ok := row.Values[col]; ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	createdAt := row.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	cols = append(cols, "created_at")
	args = append(args, createdAt)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(s.schema.Table), strings.Join(cols, ", "), placeholders)
	sets := make([]string, 0, len(cols)-1)
	for _, col := range cols[1:] {
		sets = append(sets, col+" = excluded."+col)
	}
	query += " ON CONFLICT(id) DO UPDATE SET " + strings.Join(sets, ", ")
	return query, args
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(sc scanner) (*models.Row, error) {
	var idStr string
	row := &models.Row{Values: map[string]string{}}
	vals := make([]sql.NullString, len(s.schema.Columns))

	dest := make([]any, 0, len(vals)+3)
	dest = append(dest, &idStr, &row.Position)
	for i := range vals {
		dest = append(dest, &vals[i])
	}
	dest = append(dest, &row.CreatedAt)

	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	for i, col := range s.schema.Columns {
		if vals[i].Valid {
			row.Values[col] = vals[i].String
		}
	}
	row.ID, _ = uuid.Parse(idStr)
	row.MarkStored()
	return row, nil
}

func (s *SQLiteStore) scanRow(r *sql.Row) (*models.Row, error) {
	row, err := s.scan(r)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return row, nil
}

func (s *SQLiteStore) queryRows(ctx context.Context, q querier, query string, args ...any) ([]*models.Row, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*models.Row
	for rows.Next() {
		row, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// whereClause renders group conditions. IS matches NULL and values alike.
func whereClause(conds models.Conditions) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, len(conds))
	args := make([]any, len(conds))
	for i, c := range conds {
		parts[i] = quote(c.Column) + " IS ?"
		if c.Value != nil {
			args[i] = *c.Value
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func rangeClause(field string, p models.Predicate) (string, []any) {
	switch p.Comparison {
	case models.Less:
		return field + " < ?", []any{p.From}
	case models.Greater:
		return field + " > ?", []any{p.From}
	case models.AtLeast:
		return field + " >= ?", []any{p.From}
	default:
		return field + " BETWEEN ? AND ?", []any{p.From, p.To}
	}
}

// quote wraps a validated identifier in double quotes.
func quote(name string) string {
	return `"` + name + `"`
}
