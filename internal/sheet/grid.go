package sheet

import (
	"sync"

	"tradeflow/internal/table"
)

// grid holds the sortable, filterable view shared by the raw and end-of-day
// sheets. base is the sheet's own table; view is base with the current bool
// filters and sort applied, cached as display strings.
type grid struct {
	mu      sync.RWMutex
	base    *table.Table
	view    *table.Table
	sortCol string
	sortAsc bool
	filters map[string]table.BoolFilter
	columns []string
	cache   map[string][]string
	rows    int
}

func (g *grid) setBase(t *table.Table) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.base = t
	g.rebuildLocked()
}

// rebuildLocked recomputes view and cache from base. Sorting always starts
// from the base row order, so flipping direction round-trips exactly.
func (g *grid) rebuildLocked() {
	if g.base == nil {
		g.view = nil
		g.cache = nil
		g.rows = 0
		return
	}
	v := g.base
	if len(g.filters) > 0 {
		v = table.FilterBool(v, g.filters)
	}
	if g.sortCol != "" {
		v = table.SortBy(v, g.sortCol, g.sortAsc)
	}
	g.view = v
	g.cache, g.rows = table.BuildDisplayCache(v)
}

// ToggleSort sorts by the named column, flipping direction when the column is
// already the sort key. A third toggle on the same column clears the sort.
func (g *grid) ToggleSort(column string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case g.sortCol != column:
		g.sortCol = column
		g.sortAsc = true
	case g.sortAsc:
		g.sortAsc = false
	default:
		g.sortCol = ""
	}
	g.rebuildLocked()
}

// SetFilter sets the bool filter state for a column; the neutral state
// removes the filter.
func (g *grid) SetFilter(column, state string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f := table.ParseBoolFilter(state)
	if f == table.BoolAny {
		delete(g.filters, column)
	} else {
		if g.filters == nil {
			g.filters = make(map[string]table.BoolFilter)
		}
		g.filters[column] = f
	}
	g.rebuildLocked()
}

// SetColumns narrows the visible columns. Unknown names are dropped; an
// empty request restores every column. Narrowing never rebuilds the cache.
func (g *grid) SetColumns(names []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.columns = names
}

// PageRows returns one page of the current view as display strings.
func (g *grid) PageRows(offset, limit int) Page {
	g.mu.RLock()
	defer g.mu.RUnlock()

	page := Page{Columns: []string{}, Rows: [][]string{}, Total: g.rows}
	if g.view == nil {
		return page
	}

	page.Columns = table.SelectColumns(g.view, g.columns)

	if offset < 0 {
		offset = 0
	}
	if offset > g.rows {
		offset = g.rows
	}
	if limit <= 0 {
		limit = 100
	}
	end := offset + limit
	if end > g.rows {
		end = g.rows
	}
	page.Offset = offset

	for i := offset; i < end; i++ {
		row := make([]string, len(page.Columns))
		for ci, name := range page.Columns {
			row[ci] = g.cache[name][i]
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

// NumRows reports the row count of the current filtered view.
func (g *grid) NumRows() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rows
}
