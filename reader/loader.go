package reader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"tradeflow/internal/metrics"
	"tradeflow/internal/schema"
	"tradeflow/logger"
	"tradeflow/models"
)

// Loader runs trade loads in the background and publishes the outcome of the
// most recent one. The result channel holds a single slot: a newer result
// evicts an unconsumed older one, so a consumer that falls behind only ever
// sees the latest table. Stale results are additionally guarded by the
// monotonic Seq.
type Loader struct {
	source       TradeSource
	totalColumns int
	limiter      *rate.Limiter
	results      chan models.LoadResult
	seq          atomic.Uint64
	wg           sync.WaitGroup
	log          *logger.Log
}

// NewLoader wraps a source. ratePerSec bounds how often loads may start;
// burst allows short bursts above the rate. Loaded tables are validated
// against the production layout at totalColumns width before publication.
func NewLoader(source TradeSource, totalColumns int, ratePerSec float64, burst int) *Loader {
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Inf, burst)
	if ratePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return &Loader{
		source:       source,
		totalColumns: totalColumns,
		limiter:      lim,
		results:      make(chan models.LoadResult, 1),
		log:          logger.GetLogger(),
	}
}

// Results is the single-slot stream of load outcomes.
func (l *Loader) Results() <-chan models.LoadResult {
	return l.results
}

// Load starts a background load for the inclusive day range and returns its
// operation id immediately. Loads beyond the configured rate are rejected
// up front rather than queued, so a burst of requests cannot pile up work.
func (l *Loader) Load(ctx context.Context, from, to time.Time) (string, error) {
	if !l.limiter.Allow() {
		return "", fmt.Errorf("load rate exceeded, try again shortly")
	}

	opID := uuid.New().String()
	seq := l.seq.Add(1)

	log := l.log.WithComponent("loader").WithFields(logger.Fields{
		"operation": "load",
		"op_id":     opID,
		"from":      models.FormatDate(from),
		"to":        models.FormatDate(to),
	})
	log.Info("starting background load")

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		start := time.Now()
		tbl, err := l.source.LoadTrades(ctx, from, to)
		if err == nil {
			err = schema.Validate(tbl, l.totalColumns)
		}
		duration := time.Since(start)

		res := models.LoadResult{
			Seq:      seq,
			OpID:     opID,
			From:     from,
			To:       to,
			Duration: duration,
		}
		if err != nil {
			res.Err = err
			metrics.IncrementLoadError()
			logger.IncrementLoadFailure()
			log.WithError(err).Error("load failed")
		} else {
			res.Table = tbl
			res.Rows = tbl.NumRows()
			metrics.IncrementLoadSuccess(res.Rows)
			logger.IncrementLoad(res.Rows)
			logger.LogPerformanceEntry(log, "loader", "load_trades", duration, logger.Fields{
				"rows": res.Rows,
			})
		}
		l.publish(res)
	}()

	return opID, nil
}

// Wait blocks until every in-flight load has published its result.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// publish places res in the slot, evicting an unconsumed older result.
func (l *Loader) publish(res models.LoadResult) {
	for {
		select {
		case l.results <- res:
			return
		default:
		}
		select {
		case <-l.results:
		default:
		}
	}
}
