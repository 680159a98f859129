package table

import (
	"sort"
	"strings"
)

// BoolFilter is the per-column expectation used by FilterBool.
type BoolFilter int

const (
	BoolAny BoolFilter = iota
	BoolTrue
	BoolFalse
)

// ParseBoolFilter maps the textual filter states used at the API boundary.
func ParseBoolFilter(s string) BoolFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on":
		return BoolTrue
	case "false", "no", "off":
		return BoolFalse
	default:
		return BoolAny
	}
}

// SortBy returns a new table with rows stably sorted by the named column.
// Missing cells sort before present ones. Columns whose kind has no native
// ordering fall back to comparing the formatted string representation.
// The source table is never mutated, so toggling between ascending and
// descending always re-sorts from the original row order.
func SortBy(t *Table, column string, ascending bool) *Table {
	if t.Empty() {
		return t
	}
	c, ok := t.Column(column)
	if !ok {
		return t
	}

	idx := make([]int, t.NumRows())
	for i := range idx {
		idx[i] = i
	}

	less := lessFunc(c)
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if !ascending {
			i, j = j, i
		}
		return less(i, j)
	})

	return t.Take(idx)
}

// lessFunc builds the row comparison for a single column. Missing values
// compare lower than any present value.
func lessFunc(c *Column) func(i, j int) bool {
	cmpValid := func(i, j int) (bool, bool) {
		vi, vj := c.IsValid(i), c.IsValid(j)
		if vi && vj {
			return false, false
		}
		return true, !vi && vj
	}

	switch c.Kind() {
	case KindInt:
		return func(i, j int) bool {
			if decided, r := cmpValid(i, j); decided {
				return r
			}
			return c.ints[i] < c.ints[j]
		}
	case KindFloat:
		return func(i, j int) bool {
			if decided, r := cmpValid(i, j); decided {
				return r
			}
			return c.floats[i] < c.floats[j]
		}
	case KindString:
		return func(i, j int) bool {
			if decided, r := cmpValid(i, j); decided {
				return r
			}
			return c.strs[i] < c.strs[j]
		}
	case KindBool:
		return func(i, j int) bool {
			if decided, r := cmpValid(i, j); decided {
				return r
			}
			return !c.bools[i] && c.bools[j]
		}
	case KindTime, KindDate:
		return func(i, j int) bool {
			if decided, r := cmpValid(i, j); decided {
				return r
			}
			return c.times[i].Before(c.times[j])
		}
	default:
		// No native ordering; compare display strings.
		return func(i, j int) bool {
			if decided, r := cmpValid(i, j); decided {
				return r
			}
			return FormatCell(c, i) < FormatCell(c, j)
		}
	}
}

// FilterBool keeps the rows where every constrained boolean column matches
// its expectation. BoolAny imposes no constraint; missing cells never match
// a True/False expectation. Unknown or non-bool columns are ignored.
func FilterBool(t *Table, states map[string]BoolFilter) *Table {
	if t.Empty() || len(states) == 0 {
		return t
	}

	type check struct {
		col  *Column
		want bool
	}
	checks := make([]check, 0, len(states))
	for name, state := range states {
		if state == BoolAny {
			continue
		}
		c, ok := t.Column(name)
		if !ok || c.Kind() != KindBool {
			continue
		}
		checks = append(checks, check{col: c, want: state == BoolTrue})
	}
	if len(checks) == 0 {
		return t
	}

	idx := make([]int, 0, t.NumRows())
rows:
	for i := 0; i < t.NumRows(); i++ {
		for _, ch := range checks {
			v, ok := ch.col.BoolAt(i)
			if !ok || v != ch.want {
				continue rows
			}
		}
		idx = append(idx, i)
	}
	return t.Take(idx)
}

// SelectColumns intersects the requested column names with the table's
// actual columns, preserving the requested order. An empty request selects
// every column.
func SelectColumns(t *Table, requested []string) []string {
	all := t.ColumnNames()
	if len(requested) == 0 {
		return all
	}
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if t.HasColumn(name) {
			out = append(out, name)
		}
	}
	return out
}
