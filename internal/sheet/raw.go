package sheet

import (
	"tradeflow/internal/table"
)

// RawSheet shows the loaded trade table as-is, including the flag padding
// columns.
type RawSheet struct {
	grid
}

func NewRawSheet() *RawSheet {
	return &RawSheet{}
}

func (s *RawSheet) ID() string    { return "raw" }
func (s *RawSheet) Title() string { return "Trades" }

func (s *RawSheet) OnTableLoaded(t *table.Table) {
	s.setBase(t)
}
