package sheet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	appconfig "tradeflow/config"
	"tradeflow/internal/table"
	"tradeflow/writer"
)

func tradesFixture(t *testing.T) *table.Table {
	t.Helper()
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	tbl, err := table.New(
		table.NewIntColumn("tradeNr", []int64{1, 2, 3, 4}),
		table.NewStringColumn("instrument", []string{"DAX_CALL", "DAX_CALL", "SPX_PUT", "SX5E_CALL"}),
		table.NewTimeColumn("tradeTime", []time.Time{
			day.Add(10 * time.Hour),
			day.Add(17 * time.Hour),
			day.Add(12 * time.Hour),
			day.Add(13 * time.Hour),
		}),
		table.NewStringColumn("portfolio", []string{"MM_CORE", "MM_CORE", "MM_FLOW", "MM_CORE"}),
		table.NewFloatColumn("Total", []float64{10, 100, -50, 30}),
	)
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	return tbl
}

func defaultParams() ReportParams {
	return ReportParams{
		From:          "2024-01-05",
		To:            "2024-01-05",
		N:             2,
		Mode:          "Grouped",
		RankMode:      "Value",
		IncludeTop:    true,
		IncludeBottom: true,
		Metrics:       []string{"Total"},
	}
}

func newTestReportSheet(t *testing.T) *ReportSheet {
	t.Helper()
	cfg := &appconfig.Config{}
	cfg.Tradeflow.Name = "tradeflow"
	cfg.Tradeflow.Version = "test"
	cfg.Export.ReportsDir = t.TempDir()
	cfg.Export.Parquet.Compression = "snappy"

	exporter, err := writer.NewExporter(cfg)
	if err != nil {
		t.Fatalf("NewExporter: %v", err)
	}
	presets, err := writer.NewPresetStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPresetStore: %v", err)
	}
	return NewReportSheet(defaultParams(), exporter, presets)
}

func TestReportSheetApply(t *testing.T) {
	s := newTestReportSheet(t)
	s.OnTableLoaded(tradesFixture(t))

	result, summary := s.Result()
	if result.Status != "" {
		t.Fatalf("status = %q", result.Status)
	}
	// 2 top + 2 bottom (only 3 eod rows, so 3 ranked twice) + TOTAL
	if result.Table.Empty() {
		t.Fatal("expected report rows")
	}
	if result.KPIs == nil {
		t.Fatal("expected KPIs")
	}
	if result.KPIs.TotalSum != 80 {
		t.Errorf("TotalSum = %v, want 80", result.KPIs.TotalSum)
	}
	if len(summary) == 0 {
		t.Error("expected summary lines")
	}
}

func TestReportSheetApplyRejectsBadDates(t *testing.T) {
	s := newTestReportSheet(t)
	s.OnTableLoaded(tradesFixture(t))

	p := defaultParams()
	p.From = "05.01.2024"
	if err := s.Apply(p); err == nil {
		t.Error("expected error for malformed date")
	}

	p = defaultParams()
	p.From, p.To = "2024-01-09", "2024-01-05"
	if err := s.Apply(p); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestReportSheetExportHTML(t *testing.T) {
	s := newTestReportSheet(t)
	s.OnTableLoaded(tradesFixture(t))

	path, err := s.ExportHTML(context.Background())
	if err != nil {
		t.Fatalf("ExportHTML: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "Post-Trade Report") {
		t.Error("exported document missing header")
	}
}

func TestReportSheetExportParquet(t *testing.T) {
	s := newTestReportSheet(t)
	s.OnTableLoaded(tradesFixture(t))

	path, err := s.ExportParquet(context.Background())
	if err != nil {
		t.Fatalf("ExportParquet: %v", err)
	}
	if filepath.Ext(path) != ".parquet" {
		t.Errorf("path = %q", path)
	}
}

func TestReportSheetExportWithoutReport(t *testing.T) {
	s := newTestReportSheet(t)
	if _, err := s.ExportHTML(context.Background()); err == nil {
		t.Error("expected error before first apply")
	}
}

func TestReportSheetPresetRoundTrip(t *testing.T) {
	s := newTestReportSheet(t)
	s.OnTableLoaded(tradesFixture(t))

	p := defaultParams()
	p.N = 7
	p.RankMode = "AbsValue"
	if err := s.Apply(p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := s.SavePreset("weekly"); err != nil {
		t.Fatalf("SavePreset: %v", err)
	}

	if err := s.Apply(defaultParams()); err != nil {
		t.Fatalf("Apply defaults: %v", err)
	}
	restored, err := s.LoadPreset("weekly")
	if err != nil {
		t.Fatalf("LoadPreset: %v", err)
	}
	if restored.N != 7 || restored.RankMode != "AbsValue" {
		t.Errorf("restored = %+v", restored)
	}
	if got := s.Params().N; got != 7 {
		t.Errorf("applied N = %d, want 7", got)
	}

	if _, err := s.LoadPreset("missing"); !errors.Is(err, writer.ErrPresetNotFound) {
		t.Errorf("err = %v, want ErrPresetNotFound", err)
	}
}

func TestReportSheetPage(t *testing.T) {
	s := newTestReportSheet(t)
	s.OnTableLoaded(tradesFixture(t))

	p := s.Page(0, 100)
	if p.Total == 0 || len(p.Rows) != p.Total {
		t.Fatalf("page = %+v", p)
	}
	if p.Columns[0] != "sign" {
		t.Errorf("first column = %q, want sign", p.Columns[0])
	}
}

func TestReportSheetPageTracksApply(t *testing.T) {
	s := newTestReportSheet(t)
	s.OnTableLoaded(tradesFixture(t))

	first := s.Page(0, 100)
	if first.Total == 0 {
		t.Fatal("expected report rows")
	}

	// N=1 shrinks every ranked block, so the page must show the new result.
	p := defaultParams()
	p.N = 1
	if err := s.Apply(p); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	second := s.Page(0, 100)
	if second.Total >= first.Total {
		t.Errorf("rows = %d after N=1, want fewer than %d", second.Total, first.Total)
	}
	if len(second.Rows) != second.Total {
		t.Errorf("rows slice = %d, total = %d", len(second.Rows), second.Total)
	}
}
