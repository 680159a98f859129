package processor

import (
	"sort"
	"time"

	"tradeflow/internal/table"
	"tradeflow/models"
)

// ReduceEndOfDay collapses a trade table into one row per (instrument,
// calendar day): the last row of each pair ordered by tradeTime. The key day
// is exposed as a trailing "day" column. Group order follows the sorted
// traversal, and the input table is never mutated.
//
// A nil result, not an error, signals an empty input or a table without the
// structural instrument/tradeTime columns.
func ReduceEndOfDay(t *table.Table) *table.Table {
	if t.Empty() {
		return nil
	}
	inst, ok := t.Column("instrument")
	if !ok {
		return nil
	}
	tt, ok := t.Column("tradeTime")
	if !ok {
		return nil
	}

	n := t.NumRows()
	instAt := func(i int) string {
		s, _ := inst.StringAt(i)
		return s
	}
	timeAt := func(i int) time.Time {
		v, _ := tt.TimeAt(i)
		return v
	}
	dayAt := func(i int) time.Time {
		v, ok := tt.TimeAt(i)
		if !ok {
			return time.Time{}
		}
		return models.DayOf(v)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if instAt(i) != instAt(j) {
			return instAt(i) < instAt(j)
		}
		di, dj := dayAt(i), dayAt(j)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return timeAt(i).Before(timeAt(j))
	})

	var keep []int
	var days []time.Time
	for k, i := range idx {
		if k+1 < len(idx) {
			j := idx[k+1]
			if instAt(i) == instAt(j) && dayAt(i).Equal(dayAt(j)) {
				continue
			}
		}
		keep = append(keep, i)
		days = append(days, dayAt(i))
	}

	out := t.Take(keep)
	out, _ = out.WithColumn(table.NewDateColumn("day", days))
	return out
}

// FilterRange keeps the end-of-day rows whose day falls within [from, to]
// inclusive. Both bounds are truncated to calendar days. Callers must pass a
// non-inverted range; rows with a missing day are dropped.
func FilterRange(eod *table.Table, from, to time.Time) *table.Table {
	if eod.Empty() {
		return eod
	}
	day, ok := eod.Column("day")
	if !ok {
		return nil
	}
	from = models.DayOf(from)
	to = models.DayOf(to)

	idx := make([]int, 0, eod.NumRows())
	for i := 0; i < eod.NumRows(); i++ {
		d, ok := day.TimeAt(i)
		if !ok {
			continue
		}
		if d.Before(from) || d.After(to) {
			continue
		}
		idx = append(idx, i)
	}
	return eod.Take(idx)
}
