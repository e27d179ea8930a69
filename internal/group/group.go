// ABOUTME: Group resolver for partitioned orderings
// ABOUTME: Derives the equality conditions that scope a row to its ordering group

package group

import (
	"slices"
	"strings"

	"github.com/harper/sortable/internal/models"
)

// Resolve returns one equality condition per configured column, reading the
// row's current values. A column absent on the row resolves to IS NULL.
// An empty column list yields an empty set: the whole table is one group.
func Resolve(row *models.Row, columns []string) models.Conditions {
	return FromValues(row.Values, columns)
}

// FromValues builds conditions from a plain value map.
func FromValues(values map[string]string, columns []string) models.Conditions {
	conds := make(models.Conditions, 0, len(columns))
	for _, col := range columns {
		if v, ok := values[col]; ok {
			conds = append(conds, models.Eq(col, v))
		} else {
			conds = append(conds, models.IsNull(col))
		}
	}
	return conds
}

// Equal reports whether two condition sets select the same group.
func Equal(a, b models.Conditions) bool {
	return slices.EqualFunc(a, b, func(x, y models.Condition) bool {
		if x.Column != y.Column {
			return false
		}
		if x.Value == nil || y.Value == nil {
			return x.Value == nil && y.Value == nil
		}
		return *x.Value == *y.Value
	})
}

// Key renders a stable, printable identity for a group. Distinct condition
// sets get distinct keys.
func Key(conds models.Conditions) string {
	if len(conds) == 0 {
		return "*"
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
