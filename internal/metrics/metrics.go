// Registers:
//
//	#TradeFlow_load_success_total
//	#TradeFlow_load_errors_total
//	#TradeFlow_load_rows_total
//	#TradeFlow_reports_built_total
//	#TradeFlow_exports_total
//	#TradeFlow_preset_ops_total
//	#go_* and process_* system metrics
//
// Exposes them on :2112/metrics using Prometheus HTTP handler
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once         sync.Once
	loadSuccess  prometheus.Counter
	loadErrors   prometheus.Counter
	loadRows     prometheus.Counter
	reportsBuilt *prometheus.CounterVec
	exports      *prometheus.CounterVec
	presetOps    *prometheus.CounterVec
)

func Init() {
	once.Do(func() {
		loadSuccess = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "TradeFlow_load_success_total",
			Help: "Number of trade loads that completed and validated",
		})
		loadErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "TradeFlow_load_errors_total",
			Help: "Number of trade loads that failed or produced an invalid table",
		})
		loadRows = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "TradeFlow_load_rows_total",
			Help: "Total trade rows delivered by successful loads",
		})
		reportsBuilt = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "TradeFlow_reports_built_total",
				Help: "Number of ranking reports built",
			},
			[]string{"mode"},
		)
		exports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "TradeFlow_exports_total",
				Help: "Number of report and snapshot exports written",
			},
			[]string{"kind"},
		)
		presetOps = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "TradeFlow_preset_ops_total",
				Help: "Number of preset store operations",
			},
			[]string{"op"},
		)

		_ = prometheus.Register(loadSuccess)
		_ = prometheus.Register(loadErrors)
		_ = prometheus.Register(loadRows)
		_ = prometheus.Register(reportsBuilt)
		_ = prometheus.Register(exports)
		_ = prometheus.Register(presetOps)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe("0.0.0.0:2112", nil); err != nil {
				panic("metrics server failed: " + err.Error())
			}
		}()
	})
}

// IncrementLoadSuccess records a completed load and the rows it delivered.
func IncrementLoadSuccess(rows int) {
	if loadSuccess != nil {
		loadSuccess.Inc()
	}
	if loadRows != nil && rows > 0 {
		loadRows.Add(float64(rows))
	}
}

// IncrementLoadError records a failed load.
func IncrementLoadError() {
	if loadErrors != nil {
		loadErrors.Inc()
	}
}

// IncrementReportBuilt records a report build for the given mode.
func IncrementReportBuilt(mode string) {
	if reportsBuilt != nil {
		reportsBuilt.WithLabelValues(mode).Inc()
	}
}

// IncrementExport records a written export artifact of the given kind.
func IncrementExport(kind string) {
	if exports != nil {
		exports.WithLabelValues(kind).Inc()
	}
}

// IncrementPresetOp records a preset store operation (save, load, list).
func IncrementPresetOp(op string) {
	if presetOps != nil {
		presetOps.WithLabelValues(op).Inc()
	}
}
