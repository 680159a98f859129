package reader

import (
	"context"
	"errors"
	"testing"
	"time"

	"tradeflow/internal/table"
	"tradeflow/logger"
)

type stubSource struct {
	tbl *table.Table
	err error
}

func (s *stubSource) LoadTrades(ctx context.Context, from, to time.Time) (*table.Table, error) {
	return s.tbl, s.err
}

func TestLoaderPublishesLatestResultOnly(t *testing.T) {
	src := NewFakeSource(FakeConfig{Rows: 50, Seed: 42, TotalColumns: 64})
	l := NewLoader(src, 64, 0, 10)

	if _, err := l.Load(context.Background(), day("2026-01-05"), day("2026-01-06")); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), day("2026-01-07"), day("2026-01-08")); err != nil {
		t.Fatal(err)
	}
	l.Wait()

	res := <-l.Results()
	if res.Err != nil {
		t.Fatalf("result error: %v", res.Err)
	}
	if res.Rows != 50 {
		t.Errorf("rows = %d, want 50", res.Rows)
	}
	select {
	case extra := <-l.Results():
		t.Fatalf("second result left in slot: seq=%d", extra.Seq)
	default:
	}
}

func TestLoaderSeqIncreases(t *testing.T) {
	src := NewFakeSource(FakeConfig{Rows: 10, Seed: 42, TotalColumns: 64})
	l := NewLoader(src, 64, 0, 10)

	var last uint64
	for i := 0; i < 3; i++ {
		if _, err := l.Load(context.Background(), day("2026-01-05"), day("2026-01-05")); err != nil {
			t.Fatal(err)
		}
		l.Wait()
		res := <-l.Results()
		if res.Seq <= last {
			t.Fatalf("seq %d not above previous %d", res.Seq, last)
		}
		last = res.Seq
	}
}

func TestLoaderRejectsWhenRateExceeded(t *testing.T) {
	src := NewFakeSource(FakeConfig{Rows: 10, Seed: 42, TotalColumns: 64})
	l := NewLoader(src, 64, 0.001, 1)

	if _, err := l.Load(context.Background(), day("2026-01-05"), day("2026-01-05")); err != nil {
		t.Fatalf("first load rejected: %v", err)
	}
	if _, err := l.Load(context.Background(), day("2026-01-05"), day("2026-01-05")); err == nil {
		t.Fatal("second immediate load should be rejected")
	}
	l.Wait()
}

func TestLoaderPublishesSourceError(t *testing.T) {
	wantErr := errors.New("upstream unavailable")
	l := NewLoader(&stubSource{err: wantErr}, 64, 0, 1)

	if _, err := l.Load(context.Background(), day("2026-01-05"), day("2026-01-05")); err != nil {
		t.Fatal(err)
	}
	l.Wait()
	res := <-l.Results()
	if !errors.Is(res.Err, wantErr) {
		t.Fatalf("err = %v, want %v", res.Err, wantErr)
	}
	if res.Table != nil {
		t.Error("failed load must not carry a table")
	}
}

func TestLoaderCountsRunReportActivity(t *testing.T) {
	src := NewFakeSource(FakeConfig{Rows: 25, Seed: 42, TotalColumns: 64})
	l := NewLoader(src, 64, 0, 10)
	before := logger.SnapshotRunCounters()

	if _, err := l.Load(context.Background(), day("2026-01-05"), day("2026-01-05")); err != nil {
		t.Fatal(err)
	}
	l.Wait()
	<-l.Results()

	lFail := NewLoader(&stubSource{err: errors.New("upstream unavailable")}, 64, 0, 1)
	if _, err := lFail.Load(context.Background(), day("2026-01-05"), day("2026-01-05")); err != nil {
		t.Fatal(err)
	}
	lFail.Wait()
	<-lFail.Results()

	after := logger.SnapshotRunCounters()
	if got := after.LoadsOK - before.LoadsOK; got != 1 {
		t.Errorf("loads_ok delta = %d, want 1", got)
	}
	if got := after.LoadsFailed - before.LoadsFailed; got != 1 {
		t.Errorf("loads_failed delta = %d, want 1", got)
	}
}

func TestLoaderRejectsMalformedTable(t *testing.T) {
	bad := table.MustNew(table.NewStringColumn("instrument", []string{"X"}))
	l := NewLoader(&stubSource{tbl: bad}, 64, 0, 1)

	if _, err := l.Load(context.Background(), day("2026-01-05"), day("2026-01-05")); err != nil {
		t.Fatal(err)
	}
	l.Wait()
	res := <-l.Results()
	if res.Err == nil {
		t.Fatal("expected validation error for malformed table")
	}
}
