package table

import (
	"reflect"
	"testing"
	"time"
)

func stringsOf(t *testing.T, tbl *Table, name string) []string {
	t.Helper()
	c, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("missing column %s", name)
	}
	out := make([]string, tbl.NumRows())
	for i := range out {
		out[i] = FormatCell(c, i)
	}
	return out
}

func TestSortByStringAndReverse(t *testing.T) {
	tbl := MustNew(
		NewStringColumn("instrument", []string{"SPX_CALL", "DAX_PUT", "DAX_CALL"}),
		NewIntColumn("tradeNr", []int64{1, 2, 3}),
	)

	asc := SortBy(tbl, "instrument", true)
	if got := stringsOf(t, asc, "instrument"); !reflect.DeepEqual(got, []string{"DAX_CALL", "DAX_PUT", "SPX_CALL"}) {
		t.Errorf("ascending = %v", got)
	}

	desc := SortBy(tbl, "instrument", false)
	if got := stringsOf(t, desc, "instrument"); !reflect.DeepEqual(got, []string{"SPX_CALL", "DAX_PUT", "DAX_CALL"}) {
		t.Errorf("descending = %v", got)
	}

	// the source order is preserved
	if got := stringsOf(t, tbl, "instrument"); got[0] != "SPX_CALL" {
		t.Error("SortBy mutated the source table")
	}
}

func TestSortByMissingFirst(t *testing.T) {
	c := NewFloatColumn("Total", []float64{5, 1, 3})
	c.SetMissing(2)
	tbl := MustNew(c)

	sorted := SortBy(tbl, "Total", true)
	if got := stringsOf(t, sorted, "Total"); !reflect.DeepEqual(got, []string{"", "1.0000", "5.0000"}) {
		t.Errorf("sorted = %v", got)
	}
}

func TestSortByIsStable(t *testing.T) {
	tbl := MustNew(
		NewStringColumn("portfolio", []string{"A", "A", "A"}),
		NewIntColumn("tradeNr", []int64{1, 2, 3}),
	)
	sorted := SortBy(tbl, "portfolio", true)
	c, _ := sorted.Column("tradeNr")
	for i := 0; i < 3; i++ {
		if v, _ := c.IntAt(i); v != int64(i+1) {
			t.Fatalf("stable order broken at %d: %d", i, v)
		}
	}
}

func TestSortByTimeColumn(t *testing.T) {
	base := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	tbl := MustNew(NewTimeColumn("tradeTime", []time.Time{base.Add(time.Hour), base, base.Add(2 * time.Hour)}))

	sorted := SortBy(tbl, "tradeTime", true)
	want := []string{"2024-01-05 09:00:00", "2024-01-05 10:00:00", "2024-01-05 11:00:00"}
	if got := stringsOf(t, sorted, "tradeTime"); !reflect.DeepEqual(got, want) {
		t.Errorf("sorted times = %v", got)
	}
}

func TestSortByUnknownColumnIsNoop(t *testing.T) {
	tbl := MustNew(NewIntColumn("a", []int64{2, 1}))
	if got := SortBy(tbl, "nope", true); got != tbl {
		t.Error("unknown sort column must return the input table")
	}
}

func TestFilterBool(t *testing.T) {
	tbl := MustNew(
		NewIntColumn("tradeNr", []int64{1, 2, 3, 4}),
		NewBoolColumn("flag_00", []bool{true, false, true, false}),
		NewBoolColumn("flag_01", []bool{true, true, false, false}),
	)

	out := FilterBool(tbl, map[string]BoolFilter{"flag_00": BoolTrue})
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d", out.NumRows())
	}

	out = FilterBool(tbl, map[string]BoolFilter{"flag_00": BoolTrue, "flag_01": BoolTrue})
	if out.NumRows() != 1 {
		t.Fatalf("combined rows = %d", out.NumRows())
	}
	c, _ := out.Column("tradeNr")
	if v, _ := c.IntAt(0); v != 1 {
		t.Errorf("surviving row = %d", v)
	}

	// BoolAny imposes nothing
	if out := FilterBool(tbl, map[string]BoolFilter{"flag_00": BoolAny}); out.NumRows() != 4 {
		t.Errorf("BoolAny rows = %d", out.NumRows())
	}
}

func TestFilterBoolDropsMissingCells(t *testing.T) {
	c := NewBoolColumn("flag_00", []bool{true, true})
	c.SetMissing(1)
	tbl := MustNew(c)

	if out := FilterBool(tbl, map[string]BoolFilter{"flag_00": BoolTrue}); out.NumRows() != 1 {
		t.Errorf("rows = %d", out.NumRows())
	}
}

func TestParseBoolFilter(t *testing.T) {
	cases := map[string]BoolFilter{
		"true": BoolTrue, "YES": BoolTrue, "on": BoolTrue,
		"false": BoolFalse, "No": BoolFalse, "off": BoolFalse,
		"": BoolAny, "any": BoolAny, "whatever": BoolAny,
	}
	for in, want := range cases {
		if got := ParseBoolFilter(in); got != want {
			t.Errorf("ParseBoolFilter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSelectColumns(t *testing.T) {
	tbl := MustNew(
		NewIntColumn("a", []int64{1}),
		NewIntColumn("b", []int64{2}),
		NewIntColumn("c", []int64{3}),
	)

	if got := SelectColumns(tbl, nil); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("empty request = %v", got)
	}
	if got := SelectColumns(tbl, []string{"c", "nope", "a"}); !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Errorf("narrowed = %v", got)
	}
}
