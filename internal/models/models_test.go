// ABOUTME: Unit tests for data models
// ABOUTME: Tests row snapshots, conditions, shift descriptors, and schema validation

package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewRow(t *testing.T) {
	row := NewRow(map[string]string{"list": "inbox"})

	if row.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if row.CreatedAt.IsZero() {
		t.Error("expected non-zero CreatedAt")
	}
	if !row.IsNew() {
		t.Error("expected new row")
	}
	if row.Placed() {
		t.Error("expected unplaced row")
	}
}

func TestNewRow_NilValues(t *testing.T) {
	row := NewRow(nil)
	row.Set("title", "x")
	if v, ok := row.Value("title"); !ok || v != "x" {
		t.Errorf("expected title 'x', got %q (%v)", v, ok)
	}
}

func TestNewRowAt(t *testing.T) {
	row := NewRowAt(nil, 3)
	if !row.Placed() {
		t.Error("expected placed row")
	}
	if row.Position != 3 {
		t.Errorf("expected position 3, got %d", row.Position)
	}
}

func TestRow_MarkStored(t *testing.T) {
	row := NewRow(map[string]string{"list": "a"})
	row.Position = 2
	row.MarkStored()

	if row.IsNew() {
		t.Error("expected stored row")
	}
	if row.PositionChanged() {
		t.Error("position should not be changed right after MarkStored")
	}
	if row.Placed() {
		t.Error("placement request should be cleared by MarkStored")
	}

	row.SetPosition(2)
	if !row.Placed() || row.PositionChanged() {
		t.Error("requesting the stored position is placed but unchanged")
	}

	row.SetPosition(5)
	if !row.PositionChanged() {
		t.Error("expected position change")
	}
}

func TestRow_Clone(t *testing.T) {
	row := NewRow(map[string]string{"list": "a"})
	row.MarkStored()
	c := row.Clone()
	c.Set("list", "b")

	if row.Values["list"] != "a" {
		t.Error("clone shares values map")
	}
	if c.IsNew() {
		t.Error("clone lost stored state")
	}
}

func TestRow_Unset(t *testing.T) {
	row := NewRow(map[string]string{"list": "a"})
	row.Unset("list")
	if _, ok := row.Value("list"); ok {
		t.Error("expected NULL after Unset")
	}
}

func TestParseAssignments(t *testing.T) {
	values, err := ParseAssignments([]string{"list=inbox", "title=a=b", "note="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if values["list"] != "inbox" {
		t.Errorf("expected list 'inbox', got %q", values["list"])
	}
	if values["title"] != "a=b" {
		t.Errorf("expected title 'a=b', got %q", values["title"])
	}
	if v, ok := values["note"]; !ok || v != "" {
		t.Error("expected empty note value")
	}
}

func TestParseAssignments_Invalid(t *testing.T) {
	tests := []string{"noequals", "=value", "bad col=x", "1abc=x"}
	for _, arg := range tests {
		if _, err := ParseAssignments([]string{arg}); err == nil {
			t.Errorf("expected error for %q", arg)
		}
	}
}

func TestValidateValues(t *testing.T) {
	if err := ValidateValues(map[string]string{"title": "ok"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateValues(map[string]string{"title": strings.Repeat("x", 4097)}); err == nil {
		t.Error("expected error for long value")
	}
	if err := ValidateValues(map[string]string{"bad-col": "x"}); err == nil {
		t.Error("expected error for invalid column")
	}
}

func TestCondition_Matches(t *testing.T) {
	values := map[string]string{"list": "inbox"}

	if !Eq("list", "inbox").Matches(values) {
		t.Error("expected match")
	}
	if Eq("list", "done").Matches(values) {
		t.Error("expected no match")
	}
	if IsNull("list").Matches(values) {
		t.Error("NULL condition should not match a set column")
	}
	if !IsNull("owner").Matches(values) {
		t.Error("NULL condition should match a missing column")
	}
	if Eq("owner", "").Matches(values) {
		t.Error("empty string should not match NULL")
	}
}

func TestConditions_Matches(t *testing.T) {
	conds := Conditions{Eq("list", "a"), IsNull("owner")}
	if !conds.Matches(map[string]string{"list": "a"}) {
		t.Error("expected match")
	}
	if conds.Matches(map[string]string{"list": "a", "owner": "x"}) {
		t.Error("expected no match")
	}
	if !(Conditions{}).Matches(nil) {
		t.Error("empty conditions match everything")
	}
}

func TestPredicate_Matches(t *testing.T) {
	tests := []struct {
		name string
		p    Predicate
		in   []int
		out  []int
	}{
		{"less", Predicate{Comparison: Less, From: 3}, []int{1, 2}, []int{3, 4}},
		{"greater", Predicate{Comparison: Greater, From: 3}, []int{4, 9}, []int{2, 3}},
		{"at least", Predicate{Comparison: AtLeast, From: 3}, []int{3, 4}, []int{1, 2}},
		{"between", Predicate{Comparison: Between, From: 2, To: 4}, []int{2, 3, 4}, []int{1, 5}},
		{"zero value", Predicate{}, nil, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range tt.in {
				if !tt.p.Matches(p) {
					t.Errorf("expected %d to match %s", p, tt.p)
				}
			}
			for _, p := range tt.out {
				if tt.p.Matches(p) {
					t.Errorf("expected %d not to match %s", p, tt.p)
				}
			}
		})
	}
}

func TestShift_Apply(t *testing.T) {
	up := Shift{Op: Increment, Delta: 10}
	down := Shift{Op: Decrement, Delta: 10}
	if up.Apply(20) != 30 {
		t.Errorf("expected 30, got %d", up.Apply(20))
	}
	if down.Apply(20) != 10 {
		t.Errorf("expected 10, got %d", down.Apply(20))
	}
}

func TestShift_Validate(t *testing.T) {
	valid := Shift{Field: "position", Op: Increment, Delta: 1, Range: Predicate{Comparison: Less, From: 3}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Shift{
		{Field: "pos;drop", Op: Increment, Delta: 1, Range: Predicate{Comparison: Less}},
		{Field: "position", Delta: 1, Range: Predicate{Comparison: Less}},
		{Field: "position", Op: Decrement, Range: Predicate{Comparison: Less}},
		{Field: "position", Op: Decrement, Delta: 1},
		{Field: "position", Op: Decrement, Delta: 1, Range: Predicate{Comparison: Less}, Where: Conditions{Eq("a b", "x")}},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("case %d: expected error for %v", i, s)
		}
	}
}

func TestSchema_Validate(t *testing.T) {
	ok := Schema{Table: "items", Field: "position", Columns: []string{"list", "title"}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok.HasColumn("list") || ok.HasColumn("position") {
		t.Error("HasColumn mismatch")
	}

	bad := []Schema{
		{Table: "", Field: "position"},
		{Table: "items", Field: "id"},
		{Table: "items", Field: "position", Columns: []string{"position"}},
		{Table: "items", Field: "position", Columns: []string{"list", "list"}},
		{Table: "items", Field: "position", Columns: []string{"created_at"}},
		{Table: "it ems", Field: "position"},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("case %d: expected error for %+v", i, s)
		}
	}
}

func TestSchema_CheckValues(t *testing.T) {
	s := Schema{Table: "items", Field: "position", Columns: []string{"list"}}
	if err := s.CheckValues(map[string]string{"list": "a"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := s.CheckValues(map[string]string{"color": "red"}); err == nil {
		t.Error("expected error for unknown column")
	}
}
