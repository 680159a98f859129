package sheet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tradeflow/internal/metrics"
	"tradeflow/internal/table"
	"tradeflow/logger"
	"tradeflow/models"
	"tradeflow/processor"
	"tradeflow/writer"
)

// ReportParams is the boundary form of a report request: dates and enums as
// strings, the way presets store them and the HTTP layer receives them.
type ReportParams struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	N             int      `json:"n"`
	Mode          string   `json:"mode"`
	RankMode      string   `json:"rank_mode"`
	IncludeTop    bool     `json:"include_top"`
	IncludeBottom bool     `json:"include_bottom"`
	Portfolio     string   `json:"portfolio"`
	Metrics       []string `json:"metrics"`
	Fields        []string `json:"fields"`
	ExtraMetrics  []string `json:"extra_metrics"`
}

// ReportSheet builds ranking reports from the end-of-day reduction of the
// loaded trades. The last applied parameters and result stay around so the
// dashboard can re-read them and exports reuse the exact displayed report.
type ReportSheet struct {
	mu       sync.RWMutex
	eod      *table.Table
	params   ReportParams
	result   processor.Result
	summary  []string
	rangeRow int

	// Display strings for the current result, rebuilt only when the
	// result changes so paging never re-formats the whole table.
	pageCache map[string][]string
	pageRows  int

	exporter *writer.Exporter
	presets  *writer.PresetStore
	log      *logger.Log
}

func NewReportSheet(defaults ReportParams, exporter *writer.Exporter, presets *writer.PresetStore) *ReportSheet {
	return &ReportSheet{
		params:   defaults,
		exporter: exporter,
		presets:  presets,
		log:      logger.GetLogger(),
	}
}

func (s *ReportSheet) ID() string    { return "report" }
func (s *ReportSheet) Title() string { return "Report" }

// OnTableLoaded reduces the new trades and rebuilds the report with the last
// applied parameters, so the sheet tracks reloads without user action.
func (s *ReportSheet) OnTableLoaded(t *table.Table) {
	s.mu.Lock()
	s.eod = processor.ReduceEndOfDay(t)
	params := s.params
	s.mu.Unlock()

	if params.From != "" && params.To != "" {
		s.Apply(params)
	}
}

// Apply builds a report for the given parameters. Invalid configuration is
// reported through the result status, not an error; only unusable dates fail.
func (s *ReportSheet) Apply(p ReportParams) error {
	from, to, err := parseRange(p.From, p.To)
	if err != nil {
		return err
	}

	s.mu.Lock()
	eod := s.eod
	s.params = p
	s.mu.Unlock()

	start := time.Now()
	var rng *table.Table
	if eod != nil {
		rng = processor.FilterRange(eod, from, to)
	} else {
		rng, _ = table.New()
	}

	mode := processor.ParseMode(p.Mode)
	result := processor.BuildReport(rng, processor.Params{
		Mode:          mode,
		Metrics:       p.Metrics,
		Fields:        p.Fields,
		ExtraMetrics:  p.ExtraMetrics,
		N:             p.N,
		Rank:          processor.ParseRankMode(p.RankMode),
		IncludeTop:    p.IncludeTop,
		IncludeBottom: p.IncludeBottom,
		Portfolio:     p.Portfolio,
	})
	summary := processor.SummaryLines(rng, p.Metrics)

	s.mu.Lock()
	s.result = result
	s.summary = summary
	s.rangeRow = rng.NumRows()
	s.pageCache, s.pageRows = table.BuildDisplayCache(result.Table)
	s.mu.Unlock()

	metrics.IncrementReportBuilt(string(mode))
	logger.IncrementReportBuilt(result.Table.NumRows())
	logger.RecordFlow("report_build", rng.NumRows())
	logger.LogPerformanceEntry(s.log.WithComponent("report"), "report", "build_report", time.Since(start), logger.Fields{
		"from":       p.From,
		"to":         p.To,
		"mode":       string(mode),
		"range_rows": rng.NumRows(),
		"out_rows":   result.Table.NumRows(),
	})
	return nil
}

// Result returns the last built report, its KPIs, the status text, and the
// summary lines.
func (s *ReportSheet) Result() (processor.Result, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.summary
}

// Page renders a slice of the report table as display strings.
func (s *ReportSheet) Page(offset, limit int) Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page := Page{Columns: []string{}, Rows: [][]string{}}
	t := s.result.Table
	if t == nil {
		return page
	}
	cache, n := s.pageCache, s.pageRows
	page.Columns = t.ColumnNames()
	page.Total = n

	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	if limit <= 0 {
		limit = 200
	}
	end := offset + limit
	if end > n {
		end = n
	}
	page.Offset = offset
	for i := offset; i < end; i++ {
		row := make([]string, len(page.Columns))
		for ci, name := range page.Columns {
			row[ci] = cache[name][i]
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

// ExportHTML writes the last built report as an HTML document and returns
// its path.
func (s *ReportSheet) ExportHTML(ctx context.Context) (string, error) {
	s.mu.RLock()
	result := s.result
	summary := s.summary
	meta := s.metaLocked()
	s.mu.RUnlock()

	if result.Table == nil || result.Table.Empty() {
		return "", fmt.Errorf("no report to export; apply parameters first")
	}
	if s.exporter == nil {
		return "", fmt.Errorf("exporting is not configured")
	}
	return s.exporter.ExportReportHTML(ctx, result.Table, meta, summary)
}

// ExportParquet writes the end-of-day rows of the report range as a parquet
// file and returns its path.
func (s *ReportSheet) ExportParquet(ctx context.Context) (string, error) {
	s.mu.RLock()
	eod := s.eod
	p := s.params
	meta := s.metaLocked()
	s.mu.RUnlock()

	if eod == nil || eod.Empty() {
		return "", fmt.Errorf("no end-of-day rows to export; load trades first")
	}
	if s.exporter == nil {
		return "", fmt.Errorf("exporting is not configured")
	}

	from, to, err := parseRange(p.From, p.To)
	if err != nil {
		return "", err
	}
	return s.exporter.ExportEODParquet(ctx, processor.FilterRange(eod, from, to), meta)
}

// SavePreset stores the last applied parameters under the given name.
func (s *ReportSheet) SavePreset(name string) error {
	if s.presets == nil {
		return fmt.Errorf("presets are not configured")
	}
	s.mu.RLock()
	p := s.params
	s.mu.RUnlock()
	return s.presets.Save(name, presetFromParams(p))
}

// LoadPreset restores stored parameters and rebuilds the report with them.
func (s *ReportSheet) LoadPreset(name string) (ReportParams, error) {
	if s.presets == nil {
		return ReportParams{}, fmt.Errorf("presets are not configured")
	}
	preset, err := s.presets.Load(name)
	if err != nil {
		return ReportParams{}, err
	}
	p := paramsFromPreset(preset)
	if err := s.Apply(p); err != nil {
		return ReportParams{}, err
	}
	return p, nil
}

// ListPresets names the stored presets.
func (s *ReportSheet) ListPresets() ([]string, error) {
	if s.presets == nil {
		return nil, nil
	}
	return s.presets.List()
}

// Params returns the last applied parameters.
func (s *ReportSheet) Params() ReportParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// metaLocked derives export metadata from the current state. Callers must
// hold at least the read lock.
func (s *ReportSheet) metaLocked() models.ReportMeta {
	return models.ReportMeta{
		From:      s.params.From,
		To:        s.params.To,
		N:         s.params.N,
		Mode:      s.params.Mode,
		RankMode:  string(processor.ParseRankMode(s.params.RankMode)),
		Metrics:   s.params.Metrics,
		Portfolio: s.params.Portfolio,
		RowCount:  s.rangeRow,
	}
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := models.ParseDate(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := models.ParseDate(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to date must be on or after from date")
	}
	return from, to, nil
}

func presetFromParams(p ReportParams) models.Preset {
	return models.Preset{
		From:          p.From,
		To:            p.To,
		N:             p.N,
		Mode:          p.Mode,
		RankMode:      p.RankMode,
		IncludeTop:    p.IncludeTop,
		IncludeBottom: p.IncludeBottom,
		Portfolio:     p.Portfolio,
		Metrics:       p.Metrics,
		Fields:        p.Fields,
		ExtraMetrics:  p.ExtraMetrics,
	}
}

func paramsFromPreset(p models.Preset) ReportParams {
	return ReportParams{
		From:          p.From,
		To:            p.To,
		N:             p.N,
		Mode:          p.Mode,
		RankMode:      p.RankMode,
		IncludeTop:    p.IncludeTop,
		IncludeBottom: p.IncludeBottom,
		Portfolio:     p.Portfolio,
		Metrics:       p.Metrics,
		Fields:        p.Fields,
		ExtraMetrics:  p.ExtraMetrics,
	}
}
