// ABOUTME: Physical table schema shared by storage backends and the engine
// ABOUTME: Validates identifiers before they are used as table or column names

package models

import (
	"fmt"
	"regexp"
	"slices"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved names collide with the columns every table carries.
var reserved = []string{"id", "created_at"}

// ValidateIdentifier checks that name is safe to use as a table or column name.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("identifier %q too long (max 64 characters)", name)
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("identifier %q must match %s", name, identifierRe)
	}
	return nil
}

// Schema describes what a backend stores for one table.
type Schema struct {
	Table   string   `json:"table"`
	Field   string   `json:"field"`
	Columns []string `json:"columns"`
}

// HasColumn reports whether col is one of the value columns.
func (s Schema) HasColumn(col string) bool {
	return slices.Contains(s.Columns, col)
}

// Validate checks names and rejects duplicates or reserved columns.
func (s Schema) Validate() error {
	if err := ValidateIdentifier(s.Table); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if err := ValidateIdentifier(s.Field); err != nil {
		return fmt.Errorf("field: %w", err)
	}
	if slices.Contains(reserved, s.Field) {
		return fmt.Errorf("field %q is reserved", s.Field)
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		if err := ValidateIdentifier(col); err != nil {
			return fmt.Errorf("column: %w", err)
		}
		if col == s.Field || slices.Contains(reserved, col) {
			return fmt.Errorf("column %q is reserved", col)
		}
		if seen[col] {
			return fmt.Errorf("duplicate column %q", col)
		}
		seen[col] = true
	}
	return nil
}

// CheckValues rejects values for columns the schema does not store.
func (s Schema) CheckValues(values map[string]string) error {
	for col := range values {
		if !s.HasColumn(col) {
			return fmt.Errorf("unknown column %q for table %q", col, s.Table)
		}
	}
	return nil
}
