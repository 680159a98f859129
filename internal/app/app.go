// Package app wires the background trade loader to the dashboard sheets and
// keeps the single source of truth for the currently loaded table.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradeflow/internal/sheet"
	"tradeflow/internal/table"
	"tradeflow/logger"
	"tradeflow/models"
	"tradeflow/reader"
)

// App consumes load results and fans the latest table out to every sheet.
// Results are applied in sequence order; a slow older load that lands after
// a newer one is discarded rather than overwriting fresher data.
type App struct {
	loader *reader.Loader
	sheets []sheet.Sheet
	log    *logger.Log

	mu          sync.RWMutex
	trades      *table.Table
	appliedSeq  uint64
	status      string
	lastFrom    string
	lastTo      string
	lastLoadDur time.Duration
}

func New(loader *reader.Loader, sheets []sheet.Sheet) *App {
	return &App{
		loader: loader,
		sheets: sheets,
		log:    logger.GetLogger(),
		status: "No data loaded yet.",
	}
}

// Run consumes load results until the context is cancelled. It is meant to
// run in its own goroutine for the lifetime of the process.
func (a *App) Run(ctx context.Context) {
	log := a.log.WithComponent("app")
	for {
		select {
		case <-ctx.Done():
			log.Info("result loop stopped")
			return
		case res, ok := <-a.loader.Results():
			if !ok {
				return
			}
			a.apply(res)
		}
	}
}

// Load kicks off a background load for an inclusive date range given as
// YYYY-MM-DD strings. It returns the operation ID without waiting for the
// result; the current table stays in place until a newer one lands.
func (a *App) Load(ctx context.Context, fromStr, toStr string) (string, error) {
	from, err := models.ParseDate(fromStr)
	if err != nil {
		return "", err
	}
	to, err := models.ParseDate(toStr)
	if err != nil {
		return "", err
	}
	if to.Before(from) {
		return "", fmt.Errorf("to date must be on or after from date")
	}

	opID, err := a.loader.Load(ctx, from, to)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.status = fmt.Sprintf("Loading %s → %s…", fromStr, toStr)
	a.mu.Unlock()
	return opID, nil
}

func (a *App) apply(res models.LoadResult) {
	log := a.log.WithComponent("app").WithFields(logger.Fields{
		"op_id": res.OpID,
		"seq":   res.Seq,
	})

	a.mu.Lock()
	if res.Seq <= a.appliedSeq && a.appliedSeq != 0 {
		a.mu.Unlock()
		log.Warn("discarding stale load result")
		return
	}
	a.appliedSeq = res.Seq

	if res.Err != nil {
		// keep the previous table on failure
		a.status = fmt.Sprintf("Load failed: %v", res.Err)
		a.mu.Unlock()
		log.WithError(res.Err).Error("load failed")
		return
	}

	a.trades = res.Table
	a.lastFrom = models.FormatDate(res.From)
	a.lastTo = models.FormatDate(res.To)
	a.lastLoadDur = res.Duration
	a.status = fmt.Sprintf("Loaded %d trades for %s → %s in %s.",
		res.Rows, a.lastFrom, a.lastTo, res.Duration.Round(time.Millisecond))
	sheets := a.sheets
	a.mu.Unlock()

	for _, s := range sheets {
		s.OnTableLoaded(res.Table)
	}
	logger.RecordFlow("table_fanout", res.Rows)
	log.WithFields(logger.Fields{"rows": res.Rows, "duration": res.Duration.String()}).Info("load applied")
}

// Status reports the current load state in user-facing words.
func (a *App) Status() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Snapshot describes the currently applied load.
type Snapshot struct {
	Status string `json:"status"`
	Rows   int    `json:"rows"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Seq    uint64 `json:"seq"`
}

func (a *App) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap := Snapshot{Status: a.status, Seq: a.appliedSeq, From: a.lastFrom, To: a.lastTo}
	if a.trades != nil {
		snap.Rows = a.trades.NumRows()
	}
	return snap
}

// Trades returns the currently applied trade table, which may be nil before
// the first successful load.
func (a *App) Trades() *table.Table {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.trades
}

// Sheets lists the registered sheets in display order.
func (a *App) Sheets() []sheet.Sheet {
	return a.sheets
}
