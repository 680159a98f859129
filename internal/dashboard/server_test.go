package dashboard

import (
	"context"
	"testing"
	"time"

	"tradeflow/config"
	"tradeflow/internal/app"
	"tradeflow/internal/schema"
	"tradeflow/internal/sheet"
	"tradeflow/internal/table"
	"tradeflow/logger"
	"tradeflow/reader"
)

type stubSource struct{}

func (stubSource) LoadTrades(ctx context.Context, from, to time.Time) (*table.Table, error) {
	return schema.BuildEmpty(4, 64)
}

// newTestServer wires a minimal but complete server: real sheets, a stub
// trade source, no exporter or preset store.
func newTestServer(t *testing.T, cfg config.DashboardConfig) *Server {
	t.Helper()

	raw := sheet.NewRawSheet()
	eod := sheet.NewEODSheet()
	report := sheet.NewReportSheet(sheet.ReportParams{}, nil, nil)
	loader := reader.NewLoader(stubSource{}, 64, 0, 1)
	a := app.New(loader, []sheet.Sheet{raw, eod, report})

	srv, err := NewServer(cfg, logger.Logger(), a, report, raw, eod)
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	return srv
}

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"":                               "0.0.0.0:8080",
		"  :9090  ":                      "0.0.0.0:9090",
		"localhost":                      "localhost:8080",
		"0.0.0.0:80":                     "0.0.0.0:80",
		"[::1]:443":                      "[::1]:443",
		"::1":                            "[::1]:8080",
		"*:8080":                         "0.0.0.0:8080",
		"http://13.200.112.203:8080":     "13.200.112.203:8080",
		"https://13.200.112.203":         "13.200.112.203:8080",
		"http://:7070":                   "0.0.0.0:7070",
		"tcp://localhost:5050":           "localhost:5050",
		"https://dashboard.example.com/": "dashboard.example.com:8080",
	}

	for input, want := range cases {
		if got := normalizeAddress(input); got != want {
			t.Fatalf("normalizeAddress(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNewServerNormalizesConfiguredAddress(t *testing.T) {
	srv := newTestServer(t, config.DashboardConfig{Enabled: true, Address: ":9000"})
	if srv == nil {
		t.Fatal("expected dashboard server, got nil")
	}
	if got := srv.Address(); got != "0.0.0.0:9000" {
		t.Fatalf("server address = %q, want %q", got, "0.0.0.0:9000")
	}
	srv.cleanup()
}

func TestNewServerDisabled(t *testing.T) {
	raw := sheet.NewRawSheet()
	report := sheet.NewReportSheet(sheet.ReportParams{}, nil, nil)
	loader := reader.NewLoader(stubSource{}, 64, 0, 1)
	a := app.New(loader, []sheet.Sheet{raw, report})

	srv, err := NewServer(config.DashboardConfig{Enabled: false}, logger.Logger(), a, report, raw)
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	if srv != nil {
		t.Fatal("expected nil server when the dashboard is disabled")
	}
}
