package reader

import (
	"context"
	"time"

	"tradeflow/internal/table"
)

// TradeSource loads the raw trade table for an inclusive calendar-day range.
// Implementations must be safe for concurrent use and must not mutate tables
// they have already returned.
type TradeSource interface {
	LoadTrades(ctx context.Context, from, to time.Time) (*table.Table, error)
}
