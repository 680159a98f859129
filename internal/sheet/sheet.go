// Package sheet implements the dashboard tabs of the analyzer: the raw trade
// grid, the end-of-day grid, and the report builder. Every sheet consumes the
// latest loaded trade table and keeps its own derived view.
package sheet

import (
	"tradeflow/internal/table"
)

// Sheet is one dashboard tab. OnTableLoaded is called by the app controller
// whenever a newer trade table arrives; implementations must be safe for
// concurrent use because the HTTP layer reads them while loads land.
type Sheet interface {
	ID() string
	Title() string
	OnTableLoaded(t *table.Table)
}

// Page is a rendered slice of a sheet's grid, ready for JSON transport.
type Page struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total_rows"`
	Offset  int        `json:"offset"`
}
