package table

import (
	"strconv"
	"strings"
)

const (
	flagTrueGlyph  = "✔" // ✔
	flagFalseGlyph = "X"
)

// FormatCell renders a single cell the way the display cache does. Missing
// cells always render as the empty string, whatever the column type.
func FormatCell(c *Column, i int) string {
	if !c.IsValid(i) {
		return ""
	}
	switch {
	case c.Kind() == KindTime:
		return c.times[i].Format("2006-01-02 15:04:05")
	case c.Kind() == KindDate:
		return c.times[i].Format("2006-01-02")
	case c.name == "tradeNr" && c.Kind() == KindInt:
		return strconv.FormatInt(c.ints[i], 10)
	case strings.HasPrefix(c.name, "flag_") && c.Kind() == KindBool:
		if c.bools[i] {
			return flagTrueGlyph
		}
		return flagFalseGlyph
	case c.Kind() == KindFloat:
		return strconv.FormatFloat(c.floats[i], 'f', 4, 64)
	case c.Kind() == KindInt:
		return strconv.FormatFloat(float64(c.ints[i]), 'f', 4, 64)
	case c.Kind() == KindBool:
		return strconv.FormatBool(c.bools[i])
	default:
		return c.strs[i]
	}
}

// GroupDigits inserts thousands separators into a formatted whole number,
// preserving a leading minus sign. The input must be all digits apart from
// that sign.
func GroupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	for i, r := range s {
		if i != 0 && (i-lead)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// BuildDisplayCache formats every cell of the table into per-column string
// slices so a table view can redraw rows without re-formatting on every
// scroll or resize. The cache must be rebuilt whenever the underlying table
// or its row order changes; narrowing the visible columns does not require a
// rebuild. Returns the cache and the row count.
func BuildDisplayCache(t *Table) (map[string][]string, int) {
	cache := make(map[string][]string)
	if t.Empty() {
		return cache, 0
	}

	n := t.NumRows()
	for _, c := range t.Columns() {
		vals := make([]string, n)
		for i := 0; i < n; i++ {
			vals[i] = FormatCell(c, i)
		}
		cache[c.Name()] = vals
	}
	return cache, n
}
