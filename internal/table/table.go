package table

import (
	"fmt"
	"time"
)

// Kind identifies the declared type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	// KindDate is a calendar-day column, a timestamp with the time of day
	// truncated. It formats without a time component.
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Column is a typed column of values with a validity mask. Cells with
// valid[i] == false are missing (NA / not-a-time).
type Column struct {
	name string
	kind Kind

	strs   []string
	ints   []int64
	floats []float64
	bools  []bool
	times  []time.Time

	valid []bool
}

func newColumn(name string, kind Kind, n int) *Column {
	c := &Column{name: name, kind: kind, valid: make([]bool, n)}
	switch kind {
	case KindString:
		c.strs = make([]string, n)
	case KindInt:
		c.ints = make([]int64, n)
	case KindFloat:
		c.floats = make([]float64, n)
	case KindBool:
		c.bools = make([]bool, n)
	case KindTime, KindDate:
		c.times = make([]time.Time, n)
	}
	return c
}

// NewEmptyColumn returns a column of the given kind with n cells. String,
// int, float and bool cells default to valid zero values; time and date
// cells default to missing.
func NewEmptyColumn(name string, kind Kind, n int) *Column {
	c := newColumn(name, kind, n)
	if kind != KindTime && kind != KindDate {
		for i := range c.valid {
			c.valid[i] = true
		}
	}
	return c
}

func NewStringColumn(name string, vals []string) *Column {
	c := newColumn(name, KindString, len(vals))
	copy(c.strs, vals)
	for i := range c.valid {
		c.valid[i] = true
	}
	return c
}

func NewIntColumn(name string, vals []int64) *Column {
	c := newColumn(name, KindInt, len(vals))
	copy(c.ints, vals)
	for i := range c.valid {
		c.valid[i] = true
	}
	return c
}

func NewFloatColumn(name string, vals []float64) *Column {
	c := newColumn(name, KindFloat, len(vals))
	copy(c.floats, vals)
	for i := range c.valid {
		c.valid[i] = true
	}
	return c
}

func NewBoolColumn(name string, vals []bool) *Column {
	c := newColumn(name, KindBool, len(vals))
	copy(c.bools, vals)
	for i := range c.valid {
		c.valid[i] = true
	}
	return c
}

// NewTimeColumn builds a timestamp column. Zero times are stored as missing.
func NewTimeColumn(name string, vals []time.Time) *Column {
	c := newColumn(name, KindTime, len(vals))
	copy(c.times, vals)
	for i, v := range vals {
		c.valid[i] = !v.IsZero()
	}
	return c
}

// NewDateColumn builds a calendar-day column. Zero times are stored as missing.
func NewDateColumn(name string, vals []time.Time) *Column {
	c := NewTimeColumn(name, vals)
	c.kind = KindDate
	return c
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }
func (c *Column) Len() int     { return len(c.valid) }

// IsValid reports whether the cell at i holds a value.
func (c *Column) IsValid(i int) bool { return c.valid[i] }

// Rename returns the column under a new name sharing the same storage.
func (c *Column) Rename(name string) *Column {
	out := *c
	out.name = name
	return &out
}

func (c *Column) StringAt(i int) (string, bool) {
	if c.kind != KindString || !c.valid[i] {
		return "", false
	}
	return c.strs[i], true
}

func (c *Column) IntAt(i int) (int64, bool) {
	if c.kind != KindInt || !c.valid[i] {
		return 0, false
	}
	return c.ints[i], true
}

func (c *Column) FloatAt(i int) (float64, bool) {
	if c.kind != KindFloat || !c.valid[i] {
		return 0, false
	}
	return c.floats[i], true
}

func (c *Column) BoolAt(i int) (bool, bool) {
	if c.kind != KindBool || !c.valid[i] {
		return false, false
	}
	return c.bools[i], true
}

func (c *Column) TimeAt(i int) (time.Time, bool) {
	if (c.kind != KindTime && c.kind != KindDate) || !c.valid[i] {
		return time.Time{}, false
	}
	return c.times[i], true
}

// IsNumeric reports whether the column participates in numeric
// aggregation and ranking.
func (c *Column) IsNumeric() bool {
	return c.kind == KindInt || c.kind == KindFloat
}

// NumberAt returns the cell as a float64 for aggregation. Missing cells and
// non-numeric columns coerce to 0 so they never poison sums or rank keys.
func (c *Column) NumberAt(i int) float64 {
	if !c.valid[i] {
		return 0
	}
	switch c.kind {
	case KindInt:
		return float64(c.ints[i])
	case KindFloat:
		f := c.floats[i]
		if f != f { // NaN
			return 0
		}
		return f
	default:
		return 0
	}
}

func (c *Column) SetString(i int, v string) {
	c.strs[i] = v
	c.valid[i] = true
}

func (c *Column) SetInt(i int, v int64) {
	c.ints[i] = v
	c.valid[i] = true
}

func (c *Column) SetFloat(i int, v float64) {
	c.floats[i] = v
	c.valid[i] = true
}

func (c *Column) SetBool(i int, v bool) {
	c.bools[i] = v
	c.valid[i] = true
}

func (c *Column) SetTime(i int, v time.Time) {
	c.times[i] = v
	c.valid[i] = !v.IsZero()
}

// SetMissing marks the cell at i as missing.
func (c *Column) SetMissing(i int) { c.valid[i] = false }

// Take returns a new column containing the cells at the given row indices,
// in that order.
func (c *Column) Take(idx []int) *Column {
	out := newColumn(c.name, c.kind, len(idx))
	for j, i := range idx {
		out.valid[j] = c.valid[i]
		switch c.kind {
		case KindString:
			out.strs[j] = c.strs[i]
		case KindInt:
			out.ints[j] = c.ints[i]
		case KindFloat:
			out.floats[j] = c.floats[i]
		case KindBool:
			out.bools[j] = c.bools[i]
		case KindTime, KindDate:
			out.times[j] = c.times[i]
		}
	}
	return out
}

// Table is an immutable-by-convention columnar table. Derivations (sorting,
// filtering, reduction) build new tables; they never reorder a table in place.
type Table struct {
	cols   []*Column
	byName map[string]int
	rows   int
}

// New assembles a table from columns. All columns must have the same length
// and unique names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("table: nil column at position %d", i)
		}
		if _, dup := t.byName[c.name]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c.name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("table: column %q has %d rows, want %d", c.name, c.Len(), t.rows)
		}
		t.byName[c.name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New for statically correct construction, mainly in tests.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows is nil-safe; a nil table has zero rows.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return t.rows
}

func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.cols)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool { return t.NumRows() == 0 }

func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

func (t *Table) Column(name string) (*Column, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column {
	if t == nil {
		return nil
	}
	return t.cols
}

// Take builds a new table containing the rows at the given indices, in that
// order. Indices may repeat or omit rows.
func (t *Table) Take(idx []int) *Table {
	if t == nil {
		return nil
	}
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Take(idx)
	}
	out, _ := New(cols...)
	return out
}

// WithColumn returns a new table with col appended.
func (t *Table) WithColumn(col *Column) (*Table, error) {
	if t == nil {
		return New(col)
	}
	cols := make([]*Column, 0, len(t.cols)+1)
	cols = append(cols, t.cols...)
	cols = append(cols, col)
	return New(cols...)
}
