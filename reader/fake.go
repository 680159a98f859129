package reader

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"tradeflow/internal/schema"
	"tradeflow/internal/table"
	"tradeflow/models"
)

// FakeConfig tunes the deterministic generator. The zero value is not
// usable; call DefaultFakeConfig.
type FakeConfig struct {
	Rows         int
	Seed         int64
	TotalColumns int
}

func DefaultFakeConfig() FakeConfig {
	return FakeConfig{
		Rows:         200_000,
		Seed:         42,
		TotalColumns: schema.DefaultTotalColumns,
	}
}

// FakeSource generates production-shaped trade data without touching any
// upstream system. The same (rows, seed, range) triple always produces the
// same table, which keeps report numbers reproducible across runs.
type FakeSource struct {
	cfg FakeConfig
}

func NewFakeSource(cfg FakeConfig) *FakeSource {
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultFakeConfig().Rows
	}
	if cfg.TotalColumns == 0 {
		cfg.TotalColumns = schema.DefaultTotalColumns
	}
	return &FakeSource{cfg: cfg}
}

var (
	fakeInstruments    = []string{"DAX_CALL", "DAX_PUT", "SPX_CALL", "SPX_PUT", "SX5E_CALL", "SX5E_PUT"}
	fakeUnderlyings    = []string{"DAX", "SPX", "SX5E", "NDX", "AAPL", "MSFT"}
	fakeCounterparties = []string{"CP_A", "CP_B", "CP_C", "CP_D", "CP_E", "CP_F", "CP_G"}
	fakePortfolios     = []string{"MM_CORE", "MM_FLOW", "MM_HEDGE", "MM_PROP"}

	fakeBasePrice = map[string]float64{
		"DAX": 18000, "SPX": 5200, "SX5E": 4800, "NDX": 18000, "AAPL": 190, "MSFT": 420,
	}
)

// pnl holds the per-row independent draws before cumulation.
type pnlDraws struct {
	dStep   float64
	pnlStep float64
	wStock  float64
}

// LoadTrades synthesises cfg.Rows trades with second-resolution timestamps
// spread over [from, to]. Cumulative columns accumulate per (instrument,
// day) in trade-time order, so reducing the result to end-of-day rows gives
// each group's final cumulative state. The returned table is sorted by
// tradeTime.
func (s *FakeSource) LoadTrades(ctx context.Context, from, to time.Time) (*table.Table, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("to date must be on or after from date")
	}
	start := models.DayOf(from)
	end := models.DayOf(to)
	seconds := int64(end.Sub(start)/time.Second) + 86_400

	n := s.cfg.Rows
	seed := s.cfg.Seed

	times := make([]time.Time, n)
	days := make([]time.Time, n)
	insts := make([]string, n)
	uls := make([]string, n)
	cps := make([]string, n)
	pfs := make([]string, n)
	spots := make([]float64, n)
	draws := make([]pnlDraws, n)

	for i := 0; i < n; i++ {
		if i%8192 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		k := int64(i)
		t := start.Add(time.Duration((k*1103515245+seed)%seconds) * time.Second)
		times[i] = t
		days[i] = models.DayOf(t)

		insts[i] = fakeInstruments[(k*2654435761+7)%int64(len(fakeInstruments))]
		uls[i] = fakeUnderlyings[(k*2246822519+19)%int64(len(fakeUnderlyings))]
		cps[i] = fakeCounterparties[(k*1597334677+13)%int64(len(fakeCounterparties))]
		pfs[i] = fakePortfolios[(k*3266489917+3)%int64(len(fakePortfolios))]

		noise := float64((k*104729+97)%20001-10000) / 10
		spots[i] = fakeBasePrice[uls[i]] + noise

		draws[i] = pnlDraws{
			dStep:   float64((k*8191+23)%2001-1000) / 5000,
			pnlStep: float64((k*104729+97)%2_000_001-1_000_000) / 100,
			wStock:  float64((k*37+11)%1000) / 1000,
		}
	}

	// Cumulate per (instrument, day) group in trade-time order.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if insts[i] != insts[j] {
			return insts[i] < insts[j]
		}
		if !days[i].Equal(days[j]) {
			return days[i].Before(days[j])
		}
		return times[i].Before(times[j])
	})

	cumNames := []string{
		"CumDelta_stock", "CumDelta_our_scheine", "CumDelta_external_scheine",
		"CumDelta_certificates_abandon", "CumDelta_our_abandon", "CumDelta_external_abandon",
		"PremiaCum", "SpreadsCapture", "FullSpreadCapture",
		"PnlVonDeltaCum", "feesCum", "AufgeldCum",
	}
	cum := make(map[string][]float64, len(cumNames))
	for _, name := range cumNames {
		cum[name] = make([]float64, n)
	}

	acc := make([]float64, len(cumNames))
	for k, i := range order {
		newGroup := k == 0
		if !newGroup {
			p := order[k-1]
			newGroup = insts[p] != insts[i] || !days[p].Equal(days[i])
		}
		if newGroup {
			for s := range acc {
				acc[s] = 0
			}
		}

		d := draws[i]
		wCert := 1 - d.wStock
		steps := [...]float64{
			d.dStep * d.wStock,
			d.dStep * wCert * 0.55,
			d.dStep * wCert * 0.45,
			d.dStep * wCert * 0.30,
			d.dStep * wCert * 0.40,
			d.dStep * wCert * 0.30,
			d.pnlStep * 0.60,
			d.pnlStep * 0.08,
			d.pnlStep * 0.05,
			d.pnlStep * 0.22,
			-math.Abs(d.pnlStep) * 0.01,
			d.pnlStep * 0.03,
		}
		for s, name := range cumNames {
			acc[s] += steps[s]
			cum[name][i] = acc[s]
		}
	}

	// Final row order is by tradeTime, ties keeping the grouped order.
	final := make([]int, n)
	copy(final, order)
	sort.SliceStable(final, func(a, b int) bool {
		return times[final[a]].Before(times[final[b]])
	})

	flagNames, err := schema.FlagCols(s.cfg.TotalColumns)
	if err != nil {
		return nil, err
	}

	cols := make([]*table.Column, 0, s.cfg.TotalColumns)
	for _, name := range schema.ProdCols {
		var c *table.Column
		switch name {
		case "tradeNr":
			c = table.NewEmptyColumn(name, table.KindInt, n)
			for j, i := range final {
				c.SetInt(j, int64(i+1))
			}
		case "tradeTime":
			c = takeTimes("tradeTime", times, final)
		case "instrument":
			c = takeStrings(name, insts, final)
		case "underlying":
			c = takeStrings(name, uls, final)
		case "counterparty":
			c = takeStrings(name, cps, final)
		case "portfolio":
			c = takeStrings(name, pfs, final)
		case "tradeUnderlyingSpotRef":
			c = takeFloats(name, spots, final)
		case "CumDelta":
			c = table.NewEmptyColumn(name, table.KindFloat, n)
			for j, i := range final {
				c.SetFloat(j, cum["CumDelta_stock"][i]+cum["CumDelta_our_scheine"][i]+cum["CumDelta_external_scheine"][i])
			}
		case "Total":
			c = table.NewEmptyColumn(name, table.KindFloat, n)
			for j, i := range final {
				c.SetFloat(j, cum["PremiaCum"][i]+cum["SpreadsCapture"][i]+cum["FullSpreadCapture"][i]+
					cum["PnlVonDeltaCum"][i]+cum["feesCum"][i]+cum["AufgeldCum"][i])
			}
		default:
			c = takeFloats(name, cum[name], final)
		}
		cols = append(cols, c)
	}

	for j, name := range flagNames {
		c := table.NewEmptyColumn(name, table.KindBool, n)
		period := int64(7 + j%9)
		for row, i := range final {
			c.SetBool(row, (int64(i)+int64(j))%period == 0)
		}
		cols = append(cols, c)
	}

	return table.New(cols...)
}

func takeStrings(name string, vals []string, idx []int) *table.Column {
	out := make([]string, len(idx))
	for j, i := range idx {
		out[j] = vals[i]
	}
	return table.NewStringColumn(name, out)
}

func takeFloats(name string, vals []float64, idx []int) *table.Column {
	out := make([]float64, len(idx))
	for j, i := range idx {
		out[j] = vals[i]
	}
	return table.NewFloatColumn(name, out)
}

func takeTimes(name string, vals []time.Time, idx []int) *table.Column {
	out := make([]time.Time, len(idx))
	for j, i := range idx {
		out[j] = vals[i]
	}
	return table.NewTimeColumn(name, out)
}
