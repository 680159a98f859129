package sheet

import (
	"tradeflow/internal/table"
	"tradeflow/processor"
)

// EODSheet shows the end-of-day reduction of the loaded trades: the last
// trade per (instrument, day), with the reduction day as an extra column.
type EODSheet struct {
	grid
}

func NewEODSheet() *EODSheet {
	return &EODSheet{}
}

func (s *EODSheet) ID() string    { return "eod" }
func (s *EODSheet) Title() string { return "End of Day" }

func (s *EODSheet) OnTableLoaded(t *table.Table) {
	s.setBase(processor.ReduceEndOfDay(t))
}

// EOD returns the current end-of-day table for consumers that need the raw
// reduction rather than the display view, such as the report sheet.
func (s *EODSheet) EOD() *table.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}
