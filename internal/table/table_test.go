package table

import (
	"reflect"
	"testing"
	"time"
)

func TestNewRejectsBadShapes(t *testing.T) {
	if _, err := New(NewIntColumn("a", []int64{1, 2}), NewIntColumn("a", []int64{3, 4})); err == nil {
		t.Error("expected error for duplicate column name")
	}
	if _, err := New(NewIntColumn("a", []int64{1, 2}), NewIntColumn("b", []int64{3})); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil column")
	}
}

func TestNilTableIsEmpty(t *testing.T) {
	var tbl *Table
	if !tbl.Empty() || tbl.NumRows() != 0 || tbl.NumCols() != 0 {
		t.Error("nil table must behave as empty")
	}
	if _, ok := tbl.Column("x"); ok {
		t.Error("nil table must have no columns")
	}
}

func TestTakeReordersAndDuplicates(t *testing.T) {
	tbl := MustNew(
		NewStringColumn("s", []string{"a", "b", "c"}),
		NewFloatColumn("f", []float64{1, 2, 3}),
	)

	out := tbl.Take([]int{2, 0, 2})
	if out.NumRows() != 3 {
		t.Fatalf("rows = %d", out.NumRows())
	}
	c, _ := out.Column("s")
	var got []string
	for i := 0; i < out.NumRows(); i++ {
		v, _ := c.StringAt(i)
		got = append(got, v)
	}
	if !reflect.DeepEqual(got, []string{"c", "a", "c"}) {
		t.Errorf("taken order = %v", got)
	}

	// the source is untouched
	src, _ := tbl.Column("s")
	if v, _ := src.StringAt(0); v != "a" {
		t.Error("Take mutated the source table")
	}
}

func TestWithColumnAppendsAndValidates(t *testing.T) {
	tbl := MustNew(NewIntColumn("a", []int64{1, 2}))

	out, err := tbl.WithColumn(NewFloatColumn("b", []float64{1.5, 2.5}))
	if err != nil {
		t.Fatalf("WithColumn: %v", err)
	}
	if !out.HasColumn("b") || tbl.HasColumn("b") {
		t.Error("WithColumn must extend a copy, not the receiver")
	}

	if _, err := tbl.WithColumn(NewFloatColumn("c", []float64{1})); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := tbl.WithColumn(NewFloatColumn("a", []float64{1, 2})); err == nil {
		t.Error("expected error for duplicate name")
	}
}

func TestMissingCells(t *testing.T) {
	c := NewFloatColumn("f", []float64{1, 2})
	c.SetMissing(1)

	if _, ok := c.FloatAt(1); ok {
		t.Error("missing cell must report !ok")
	}
	if v, ok := c.FloatAt(0); !ok || v != 1 {
		t.Errorf("valid cell = %v, %v", v, ok)
	}
}

func TestTimeColumnsTreatZeroAsMissing(t *testing.T) {
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	c := NewTimeColumn("tradeTime", []time.Time{now, {}})

	if !c.IsValid(0) || c.IsValid(1) {
		t.Error("zero time must be missing")
	}
}

func TestNumberAtCoversIntAndFloat(t *testing.T) {
	f := NewFloatColumn("f", []float64{2.5})
	i := NewIntColumn("i", []int64{7})
	if f.NumberAt(0) != 2.5 || i.NumberAt(0) != 7 {
		t.Error("NumberAt mismatch")
	}
}

func TestRenameLeavesSourceIntact(t *testing.T) {
	c := NewIntColumn("old", []int64{1})
	r := c.Rename("new")
	if c.Name() != "old" || r.Name() != "new" {
		t.Errorf("names = %q, %q", c.Name(), r.Name())
	}
	if v, _ := r.IntAt(0); v != 1 {
		t.Error("rename must keep values")
	}
}
