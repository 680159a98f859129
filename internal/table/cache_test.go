package table

import (
	"testing"
	"time"
)

func TestFormatCellRules(t *testing.T) {
	ts := time.Date(2024, 1, 5, 16, 59, 1, 0, time.UTC)

	cases := []struct {
		name string
		col  *Column
		want string
	}{
		{"timestamp", NewTimeColumn("tradeTime", []time.Time{ts}), "2024-01-05 16:59:01"},
		{"date", NewDateColumn("day", []time.Time{ts}), "2024-01-05"},
		{"trade number stays integral", NewIntColumn("tradeNr", []int64{42}), "42"},
		{"flag true", NewBoolColumn("flag_03", []bool{true}), "✔"},
		{"flag false", NewBoolColumn("flag_03", []bool{false}), "X"},
		{"float", NewFloatColumn("Total", []float64{1234.5}), "1234.5000"},
		{"negative float", NewFloatColumn("Total", []float64{-0.25}), "-0.2500"},
		{"plain int", NewIntColumn("rank", []int64{3}), "3.0000"},
		{"string", NewStringColumn("instrument", []string{"DAX_CALL"}), "DAX_CALL"},
	}

	for _, c := range cases {
		if got := FormatCell(c.col, 0); got != c.want {
			t.Errorf("%s: FormatCell = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestFormatCellMissingIsEmpty(t *testing.T) {
	c := NewFloatColumn("Total", []float64{1})
	c.SetMissing(0)
	if got := FormatCell(c, 0); got != "" {
		t.Errorf("missing cell = %q", got)
	}

	b := NewBoolColumn("flag_00", []bool{true})
	b.SetMissing(0)
	if got := FormatCell(b, 0); got != "" {
		t.Errorf("missing flag = %q", got)
	}
}

func TestBuildDisplayCache(t *testing.T) {
	tbl := MustNew(
		NewIntColumn("tradeNr", []int64{1, 2}),
		NewFloatColumn("Total", []float64{1.5, -2}),
	)

	cache, n := BuildDisplayCache(tbl)
	if n != 2 {
		t.Fatalf("rows = %d", n)
	}
	if got := cache["tradeNr"]; got[0] != "1" || got[1] != "2" {
		t.Errorf("tradeNr = %v", got)
	}
	if got := cache["Total"]; got[0] != "1.5000" || got[1] != "-2.0000" {
		t.Errorf("Total = %v", got)
	}
}

func TestGroupDigits(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1,000"},
		{"1234567", "1,234,567"},
		{"-987", "-987"},
		{"-1234567", "-1,234,567"},
	}
	for _, c := range cases {
		if got := GroupDigits(c.in); got != c.want {
			t.Errorf("GroupDigits(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBuildDisplayCacheEmptyTable(t *testing.T) {
	var tbl *Table
	cache, n := BuildDisplayCache(tbl)
	if n != 0 || len(cache) != 0 {
		t.Errorf("cache = %v, rows = %d", cache, n)
	}
}
