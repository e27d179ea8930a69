// ABOUTME: Structured descriptors for group conditions and bulk position shifts
// ABOUTME: Backends translate these into their own query mechanism

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition restricts a query to rows whose column equals Value.
// A nil Value matches NULL.
type Condition struct {
	Column string
	Value  *string
}

// Eq builds a non-NULL equality condition.
func Eq(col, value string) Condition {
	return Condition{Column: col, Value: &value}
}

// IsNull builds a condition matching rows where col is NULL.
func IsNull(col string) Condition {
	return Condition{Column: col}
}

// Matches reports whether the values satisfy the condition.
func (c Condition) Matches(values map[string]string) bool {
	v, ok := values[c.Column]
	if c.Value == nil {
		return !ok
	}
	return ok && v == *c.Value
}

// String renders col=value. Values that are empty, contain a separator, the
// NULL marker, or anything strconv would escape are quoted, so distinct
// conditions never render alike.
func (c Condition) String() string {
	if c.Value == nil {
		return c.Column + "=∅"
	}
	v := *c.Value
	if q := strconv.Quote(v); v == "" || q != `"`+v+`"` || strings.ContainsAny(v, `,=∅`) {
		v = q
	}
	return c.Column + "=" + v
}

// Conditions is a conjunction of equality constraints scoping one group.
type Conditions []Condition

// Matches reports whether the values satisfy every condition.
func (cs Conditions) Matches(values map[string]string) bool {
	for _, c := range cs {
		if !c.Matches(values) {
			return false
		}
	}
	return true
}

// Op is the arithmetic applied by a shift.
type Op int

const (
	Increment Op = iota + 1
	Decrement
)

func (o Op) String() string {
	switch o {
	case Increment:
		return "+"
	case Decrement:
		return "-"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Comparison selects which positions a shift touches.
type Comparison int

const (
	// Less matches position < From.
	Less Comparison = iota + 1
	// Greater matches position > From.
	Greater
	// AtLeast matches position >= From.
	AtLeast
	// Between matches From <= position <= To.
	Between
)

// Predicate is a range or comparison over the position field.
type Predicate struct {
	Comparison Comparison
	From       int
	To         int
}

// Matches reports whether a position satisfies the predicate.
func (p Predicate) Matches(position int) bool {
	switch p.Comparison {
	case Less:
		return position < p.From
	case Greater:
		return position > p.From
	case AtLeast:
		return position >= p.From
	case Between:
		return position >= p.From && position <= p.To
	default:
		return false
	}
}

func (p Predicate) String() string {
	switch p.Comparison {
	case Less:
		return fmt.Sprintf("< %d", p.From)
	case Greater:
		return fmt.Sprintf("> %d", p.From)
	case AtLeast:
		return fmt.Sprintf(">= %d", p.From)
	case Between:
		return fmt.Sprintf("in [%d, %d]", p.From, p.To)
	default:
		return "never"
	}
}

// Shift is a bulk update: Field = Field Op Delta for every row in the group
// (Where) whose position satisfies Range.
type Shift struct {
	Field string
	Op    Op
	Delta int
	Range Predicate
	Where Conditions
}

// Apply returns the shifted value of position.
func (s Shift) Apply(position int) int {
	if s.Op == Decrement {
		return position - s.Delta
	}
	return position + s.Delta
}

// Validate rejects descriptors a backend cannot execute.
func (s Shift) Validate() error {
	if err := ValidateIdentifier(s.Field); err != nil {
		return fmt.Errorf("shift field: %w", err)
	}
	if s.Op != Increment && s.Op != Decrement {
		return fmt.Errorf("shift op %v not supported", s.Op)
	}
	if s.Delta <= 0 {
		return fmt.Errorf("shift delta must be positive, got %d", s.Delta)
	}
	if s.Range.Comparison < Less || s.Range.Comparison > Between {
		return fmt.Errorf("shift range comparison %d not supported", s.Range.Comparison)
	}
	for _, c := range s.Where {
		if err := ValidateIdentifier(c.Column); err != nil {
			return fmt.Errorf("shift condition: %w", err)
		}
	}
	return nil
}

func (s Shift) String() string {
	return fmt.Sprintf("%s %s= %d where %s %s %v", s.Field, s.Op, s.Delta, s.Field, s.Range, s.Where)
}
