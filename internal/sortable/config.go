// ABOUTME: Position engine configuration
// ABOUTME: Field name, group columns, start value, and step size

package sortable

import (
	"fmt"

	"github.com/harper/sortable/internal/models"
)

// Config is fixed for the lifetime of an Engine.
type Config struct {
	// Field is the name of the integer sort column.
	Field string `json:"field"`
	// Group lists the columns whose values partition the table into
	// independently ordered groups. Empty means one group.
	Group []string `json:"group,omitempty"`
	// Start is the position of the first row in a group.
	Start int `json:"start"`
	// Step is the distance between adjacent rows.
	Step int `json:"step"`
}

// DefaultConfig orders the "position" field from 1 in steps of 1.
func DefaultConfig() Config {
	return Config{Field: "position", Start: 1, Step: 1}
}

// Validate checks the configuration on its own, without a schema.
func (c Config) Validate() error {
	if err := models.ValidateIdentifier(c.Field); err != nil {
		return fmt.Errorf("field: %w", err)
	}
	if c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %d", c.Step)
	}
	seen := make(map[string]bool, len(c.Group))
	for _, col := range c.Group {
		if err := models.ValidateIdentifier(col); err != nil {
			return fmt.Errorf("group column: %w", err)
		}
		if col == c.Field {
			return fmt.Errorf("group column %q is the position field", col)
		}
		if seen[col] {
			return fmt.Errorf("duplicate group column %q", col)
		}
		seen[col] = true
	}
	return nil
}

// ValidateSchema checks that the backend stores every column the config uses.
func (c Config) ValidateSchema(s models.Schema) error {
	if s.Field != c.Field {
		return fmt.Errorf("field %q does not match table %q field %q", c.Field, s.Table, s.Field)
	}
	for _, col := range c.Group {
		if !s.HasColumn(col) {
			return fmt.Errorf("group column %q not present on table %q", col, s.Table)
		}
	}
	return nil
}

// aligned reports whether p lies on the start + k*step lattice.
func (c Config) aligned(p int) bool {
	return (p-c.Start)%c.Step == 0
}
