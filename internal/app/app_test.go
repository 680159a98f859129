package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"tradeflow/internal/schema"
	"tradeflow/internal/sheet"
	"tradeflow/internal/table"
	"tradeflow/reader"
)

type stubSource struct {
	rows int
	err  error
}

func (s *stubSource) LoadTrades(ctx context.Context, from, to time.Time) (*table.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	return schema.BuildEmpty(s.rows, 64)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestApp(t *testing.T, src reader.TradeSource) (*App, *sheet.RawSheet, context.CancelFunc) {
	t.Helper()
	raw := sheet.NewRawSheet()
	loader := reader.NewLoader(src, 64, 0, 1)
	a := New(loader, []sheet.Sheet{raw})

	ctx, cancel := context.WithCancel(context.Background())
	go a.Run(ctx)
	return a, raw, cancel
}

func TestAppAppliesLoad(t *testing.T) {
	a, raw, cancel := newTestApp(t, &stubSource{rows: 7})
	defer cancel()

	opID, err := a.Load(context.Background(), "2024-01-05", "2024-01-09")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if opID == "" {
		t.Error("expected an operation ID")
	}

	waitFor(t, func() bool { return a.Snapshot().Rows == 7 })

	snap := a.Snapshot()
	if snap.From != "2024-01-05" || snap.To != "2024-01-09" {
		t.Errorf("snapshot range = %s → %s", snap.From, snap.To)
	}
	if !strings.Contains(snap.Status, "Loaded 7 trades") {
		t.Errorf("status = %q", snap.Status)
	}
	if got := raw.NumRows(); got != 7 {
		t.Errorf("raw sheet rows = %d, want 7", got)
	}
}

func TestAppRejectsBadDates(t *testing.T) {
	a, _, cancel := newTestApp(t, &stubSource{rows: 1})
	defer cancel()

	if _, err := a.Load(context.Background(), "not-a-date", "2024-01-09"); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := a.Load(context.Background(), "2024-01-09", "2024-01-05"); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestAppKeepsTableOnFailedLoad(t *testing.T) {
	src := &stubSource{rows: 3}
	a, raw, cancel := newTestApp(t, src)
	defer cancel()

	if _, err := a.Load(context.Background(), "2024-01-05", "2024-01-05"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitFor(t, func() bool { return a.Snapshot().Rows == 3 })

	src.err = context.DeadlineExceeded
	if _, err := a.Load(context.Background(), "2024-01-06", "2024-01-06"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	waitFor(t, func() bool { return strings.Contains(a.Status(), "Load failed") })

	if got := a.Snapshot().Rows; got != 3 {
		t.Errorf("rows after failed load = %d, want 3", got)
	}
	if got := raw.NumRows(); got != 3 {
		t.Errorf("raw sheet rows after failed load = %d, want 3", got)
	}
}
