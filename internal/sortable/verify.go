// ABOUTME: Density checks for stored positions
// ABOUTME: Detects duplicate positions, a wrong first position, and gaps per group

package sortable

import (
	"fmt"
	"slices"
	"strings"

	"github.com/harper/sortable/internal/group"
	"github.com/harper/sortable/internal/models"
)

// Violation describes one group whose positions are not dense and unique.
type Violation struct {
	Group     string
	Positions []int
	Reason    string
}

// ViolationError lists every group that failed a check.
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Group, v.Reason)
	}
	return fmt.Sprintf("%d group(s) out of order: %s", len(e.Violations), strings.Join(parts, "; "))
}

// CheckDense reports why positions are not exactly start, start+step, ...
// Returns "" when they are. Order of the input does not matter.
func CheckDense(positions []int, start, step int) string {
	sorted := slices.Clone(positions)
	slices.Sort(sorted)
	for i, p := range sorted {
		want := start + i*step
		if i > 0 && p == sorted[i-1] {
			return fmt.Sprintf("duplicate position %d", p)
		}
		if p != want {
			if i == 0 {
				return fmt.Sprintf("first position is %d, expected %d", p, start)
			}
			return fmt.Sprintf("gap after %d: found %d, expected %d", sorted[i-1], p, want)
		}
	}
	return ""
}

// Verify groups rows by the configured columns and checks every group.
func (e *Engine) Verify(rows []*models.Row) error {
	var order []string
	byGroup := map[string][]int{}
	for _, row := range rows {
		k := group.Key(e.Conditions(row))
		if _, ok := byGroup[k]; !ok {
			order = append(order, k)
		}
		byGroup[k] = append(byGroup[k], row.Position)
	}

	var violations []Violation
	for _, k := range order {
		if reason := CheckDense(byGroup[k], e.cfg.Start, e.cfg.Step); reason != "" {
			violations = append(violations, Violation{Group: k, Positions: byGroup[k], Reason: reason})
		}
	}
	if len(violations) > 0 {
		return &ViolationError{Violations: violations}
	}
	return nil
}
