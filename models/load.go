package models

import (
	"time"

	"tradeflow/internal/table"
)

// LoadResult is the payload published by the background trade loader.
// Exactly one of Table or Err is set. Seq increases monotonically per
// loader so consumers can discard results that arrive out of order.
type LoadResult struct {
	Seq      uint64
	OpID     string
	From     time.Time
	To       time.Time
	Table    *table.Table
	Err      error
	Rows     int
	Duration time.Duration
}
