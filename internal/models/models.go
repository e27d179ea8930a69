// ABOUTME: Core data model for ordered rows
// ABOUTME: Tracks a row's position, column values, and its last persisted snapshot

package models

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidateValues checks that column names are usable and values are within length limits.
func ValidateValues(values map[string]string) error {
	for col, val := range values {
		if err := ValidateIdentifier(col); err != nil {
			return err
		}
		if len(val) > 4096 {
			return fmt.Errorf("value for %q too long (max 4096 characters)", col)
		}
	}
	return nil
}

// ParseAssignments turns ["list=inbox", "title=buy milk"] into a value map.
func ParseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		col, val, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q (expected column=value)", arg)
		}
		col = strings.TrimSpace(col)
		if err := ValidateIdentifier(col); err != nil {
			return nil, err
		}
		values[col] = val
	}
	return values, nil
}

// Row is one ordered record. Position is the configured sort field; every
// other column lives in Values. A column missing from Values is NULL.
type Row struct {
	ID        uuid.UUID         `json:"id"`
	Position  int               `json:"position"`
	Values    map[string]string `json:"values,omitempty"`
	CreatedAt time.Time         `json:"created_at"`

	placed    bool
	stored    bool
	storedPos int
}

// NewRow creates an unplaced row that will be appended to the end of its group.
func NewRow(values map[string]string) *Row {
	if values == nil {
		values = map[string]string{}
	}
	return &Row{
		ID:        uuid.New(),
		Values:    values,
		CreatedAt: time.Now(),
	}
}

// NewRowAt creates a row that asks to be inserted at the given position.
func NewRowAt(values map[string]string, position int) *Row {
	r := NewRow(values)
	r.SetPosition(position)
	return r
}

// SetPosition requests a new position for the row. For stored rows the
// ordering hook shifts neighbors when the row is saved.
func (r *Row) SetPosition(position int) {
	r.Position = position
	r.placed = true
}

// Placed reports whether a position was explicitly requested since the row
// was last loaded or saved.
func (r *Row) Placed() bool {
	return r.placed
}

// Value returns the column value and whether it is non-NULL.
func (r *Row) Value(col string) (string, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// Set assigns a column value.
func (r *Row) Set(col, value string) {
	if r.Values == nil {
		r.Values = map[string]string{}
	}
	r.Values[col] = value
}

// Unset makes a column NULL.
func (r *Row) Unset(col string) {
	delete(r.Values, col)
}

// MarkStored records the current state as the persisted snapshot.
// Backends call it after loading or writing a row.
func (r *Row) MarkStored() {
	r.stored = true
	r.placed = false
	r.storedPos = r.Position
}

// IsNew reports whether the row has never been persisted.
func (r *Row) IsNew() bool {
	return !r.stored
}

// PositionChanged reports whether a stored row's position differs from the
// position it was loaded or saved with.
func (r *Row) PositionChanged() bool {
	return r.stored && r.Position != r.storedPos
}

// Clone returns a deep copy, including the persisted snapshot.
func (r *Row) Clone() *Row {
	c := *r
	c.Values = maps.Clone(r.Values)
	return &c
}
