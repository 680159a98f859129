package processor

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"tradeflow/internal/table"
	"tradeflow/models"
)

// RankMode selects the ordering key for Top/Bottom selection.
type RankMode string

const (
	RankValue    RankMode = "Value"
	RankAbsValue RankMode = "AbsValue"
)

// ParseRankMode normalises the textual rank modes accepted at boundaries,
// including the legacy "Abs(Value)" spelling kept for old presets.
func ParseRankMode(s string) RankMode {
	switch strings.TrimSpace(s) {
	case "AbsValue", "Abs(Value)", "abs", "absvalue":
		return RankAbsValue
	default:
		return RankValue
	}
}

// Mode names the two report variants.
type Mode string

const (
	// ModeGrouped ranks several metrics at once; blocks are grouped by
	// metric then section, the bottom block lists rank 1..n downward, and
	// extra metric columns are filled only on TOTAL rows.
	ModeGrouped Mode = "Grouped"
	// ModeSingle ranks one metric with an optional portfolio filter; the
	// bottom block is reversed so rank 1 sits against the TOTAL divider,
	// extra metric columns are populated on every row, and string identity
	// cells of the TOTAL row carry the ALL sentinel.
	ModeSingle Mode = "Single"
)

// ParseMode maps the textual report modes; anything unrecognised falls back
// to the grouped variant.
func ParseMode(s string) Mode {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "single", "kpi":
		return ModeSingle
	default:
		return ModeGrouped
	}
}

// Section tags a report row.
type Section string

const (
	SectionTop    Section = "Top"
	SectionBottom Section = "Bottom"
	SectionTotal  Section = "TOTAL"
)

const (
	// MinN and MaxN clamp the requested block size.
	MinN = 1
	MaxN = 50000

	// RankTotal is the rank sentinel carried by TOTAL rows.
	RankTotal = "TOTAL"

	signTotal    = "Σ" // Σ
	signPositive = "\U0001f7e2"
	signNegative = "\U0001f534"
)

// identityFields are the display columns that carry the ALL sentinel on the
// TOTAL row of single-metric reports.
var identityFields = map[string]bool{
	"instrument":   true,
	"portfolio":    true,
	"counterparty": true,
	"underlying":   true,
}

// Params configures a report build. Metrics[0] is the ranked metric in
// ModeSingle; every entry is ranked in ModeGrouped.
type Params struct {
	Mode          Mode
	Metrics       []string
	Fields        []string
	ExtraMetrics  []string
	N             int
	Rank          RankMode
	IncludeTop    bool
	IncludeBottom bool
	// Portfolio filters rows by exact match in ModeSingle. Empty or "ALL"
	// imposes no filter.
	Portfolio string
}

// KPIs are the aggregate summary numbers of a report. TotalSum is the TOTAL
// row value of the primary metric rounded to the nearest integer; the other
// sums are exact.
type KPIs struct {
	TopSum    float64
	BottomSum float64
	TotalSum  float64
	Net       float64
}

// Result is the outcome of a report build. Configuration problems come back
// as an empty table plus a status string, never as an error.
type Result struct {
	Table  *table.Table
	KPIs   *KPIs
	Status string
}

// outRow describes one report row before column materialisation. src < 0
// marks a TOTAL row.
type outRow struct {
	metric  string
	section Section
	rank    string
	value   float64
	src     int
}

// BuildReport ranks an end-of-day table into Top-N/Bottom-N blocks per
// metric, appends a TOTAL row whose value sums the entire input set
// (independent of N), and derives the KPIs of the primary metric. The input
// is expected to be range-filtered already; portfolio filtering happens here
// in ModeSingle.
func BuildReport(eod *table.Table, p Params) Result {
	if eod.Empty() {
		return Result{Status: "no rows"}
	}
	if !p.IncludeTop && !p.IncludeBottom {
		return Result{Status: "select Top and/or Bottom"}
	}

	n := p.N
	if n < MinN {
		n = MinN
	}
	if n > MaxN {
		n = MaxN
	}

	if p.Mode == ModeSingle {
		eod = filterPortfolio(eod, p.Portfolio)
		if eod.Empty() {
			return Result{Status: "no rows for portfolio " + p.Portfolio}
		}
	}

	metrics, missing := resolveMetrics(eod, p)
	if len(metrics) == 0 {
		if len(missing) > 0 {
			return Result{Status: fmt.Sprintf("metric %s not in table", strings.Join(missing, ", "))}
		}
		return Result{Status: "select at least 1 metric"}
	}

	fields := resolveFields(eod, p.Fields)
	extras := resolveExtras(eod, p.ExtraMetrics, metrics)

	var rows []outRow
	var kpis *KPIs
	for _, m := range metrics {
		col, _ := eod.Column(m)
		values := make([]float64, eod.NumRows())
		keys := make([]float64, eod.NumRows())
		total := 0.0
		for i := range values {
			v := col.NumberAt(i)
			values[i] = v
			total += v
			if p.Rank == RankAbsValue {
				v = math.Abs(v)
			}
			keys[i] = v
		}

		var top, bottom []int
		if p.IncludeTop {
			top = selectRanked(keys, n, false)
		}
		if p.IncludeBottom {
			bottom = selectRanked(keys, n, true)
		}

		topSum, bottomSum := 0.0, 0.0
		for _, i := range top {
			topSum += values[i]
		}
		for _, i := range bottom {
			bottomSum += values[i]
		}
		if kpis == nil {
			kpis = &KPIs{
				TopSum:    topSum,
				BottomSum: bottomSum,
				TotalSum:  math.Round(total),
				Net:       topSum + bottomSum,
			}
		}

		for r, i := range top {
			rows = append(rows, outRow{metric: m, section: SectionTop, rank: strconv.Itoa(r + 1), value: values[i], src: i})
		}
		if p.Mode == ModeSingle {
			// Reversed so rank 1 sits next to the TOTAL divider.
			for r := len(bottom) - 1; r >= 0; r-- {
				rows = append(rows, outRow{metric: m, section: SectionBottom, rank: strconv.Itoa(r + 1), value: values[bottom[r]], src: bottom[r]})
			}
		} else {
			for r, i := range bottom {
				rows = append(rows, outRow{metric: m, section: SectionBottom, rank: strconv.Itoa(r + 1), value: values[i], src: i})
			}
		}
		rows = append(rows, outRow{metric: m, section: SectionTotal, rank: RankTotal, value: total, src: -1})
	}

	out := materialise(eod, rows, fields, extras, p.Mode)
	return Result{Table: out, KPIs: kpis}
}

func filterPortfolio(t *table.Table, portfolio string) *table.Table {
	portfolio = strings.TrimSpace(portfolio)
	if portfolio == "" || portfolio == models.PortfolioAll {
		return t
	}
	col, ok := t.Column("portfolio")
	if !ok {
		return t
	}
	idx := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if s, ok := col.StringAt(i); ok && s == portfolio {
			idx = append(idx, i)
		}
	}
	return t.Take(idx)
}

// resolveMetrics keeps the requested metrics that exist as numeric columns,
// deduplicated in request order. ModeSingle considers only the first entry.
func resolveMetrics(t *table.Table, p Params) (present, missing []string) {
	requested := p.Metrics
	if p.Mode == ModeSingle && len(requested) > 1 {
		requested = requested[:1]
	}
	seen := make(map[string]bool)
	for _, m := range requested {
		if seen[m] {
			continue
		}
		seen[m] = true
		col, ok := t.Column(m)
		if !ok || !col.IsNumeric() {
			missing = append(missing, m)
			continue
		}
		present = append(present, m)
	}
	return present, missing
}

// resolveFields keeps the requested display columns that exist, order
// preserved and deduplicated, with instrument and day forced to the front
// when the table carries them.
func resolveFields(t *table.Table, requested []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range requested {
		if seen[f] || !t.HasColumn(f) {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	for _, must := range []string{"day", "instrument"} {
		if !t.HasColumn(must) {
			continue
		}
		if seen[must] {
			for k, f := range out {
				if f == must {
					out = append(out[:k], out[k+1:]...)
					break
				}
			}
		}
		out = append([]string{must}, out...)
		seen[must] = true
	}
	return out
}

func resolveExtras(t *table.Table, requested, metrics []string) []string {
	ranked := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		ranked[m] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range requested {
		if seen[e] || ranked[e] {
			continue
		}
		col, ok := t.Column(e)
		if !ok || !col.IsNumeric() {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// selectRanked returns the indices of the n extreme rows. Ties keep the
// original row order; ascending picks the smallest keys first.
func selectRanked(keys []float64, n int, ascending bool) []int {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if ascending {
			return keys[idx[a]] < keys[idx[b]]
		}
		return keys[idx[a]] > keys[idx[b]]
	})
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}

func signOf(r outRow) string {
	if r.section == SectionTotal {
		return signTotal
	}
	if r.value >= 0 {
		return signPositive
	}
	return signNegative
}

// materialise builds the report table columns from the assembled rows.
func materialise(src *table.Table, rows []outRow, fields, extras []string, mode Mode) *table.Table {
	n := len(rows)

	sign := make([]string, n)
	metric := make([]string, n)
	section := make([]string, n)
	rank := make([]string, n)
	value := make([]float64, n)
	for i, r := range rows {
		sign[i] = signOf(r)
		metric[i] = r.metric
		section[i] = string(r.section)
		rank[i] = r.rank
		value[i] = r.value
	}

	cols := []*table.Column{table.NewStringColumn("sign", sign)}
	if mode == ModeGrouped {
		cols = append(cols, table.NewStringColumn("metric", metric))
	}
	cols = append(cols,
		table.NewStringColumn("section", section),
		table.NewStringColumn("rank", rank),
		table.NewFloatColumn("metric_value", value),
	)

	for _, f := range fields {
		srcCol, _ := src.Column(f)
		out := table.NewEmptyColumn(f, srcCol.Kind(), n)
		for i, r := range rows {
			if r.src < 0 {
				if mode == ModeSingle && identityFields[f] && srcCol.Kind() == table.KindString {
					out.SetString(i, models.PortfolioAll)
				} else {
					out.SetMissing(i)
				}
				continue
			}
			copyCell(out, srcCol, i, r.src)
		}
		cols = append(cols, out)
	}

	for _, e := range extras {
		srcCol, _ := src.Column(e)
		sum := 0.0
		for i := 0; i < src.NumRows(); i++ {
			sum += srcCol.NumberAt(i)
		}
		out := table.NewEmptyColumn(e, table.KindFloat, n)
		for i, r := range rows {
			switch {
			case r.src < 0:
				out.SetFloat(i, sum)
			case mode == ModeSingle:
				out.SetFloat(i, srcCol.NumberAt(r.src))
			default:
				out.SetMissing(i)
			}
		}
		cols = append(cols, out)
	}

	out, _ := table.New(cols...)
	return out
}

func copyCell(dst, src *table.Column, di, si int) {
	if !src.IsValid(si) {
		dst.SetMissing(di)
		return
	}
	switch src.Kind() {
	case table.KindString:
		v, _ := src.StringAt(si)
		dst.SetString(di, v)
	case table.KindInt:
		v, _ := src.IntAt(si)
		dst.SetInt(di, v)
	case table.KindFloat:
		v, _ := src.FloatAt(si)
		dst.SetFloat(di, v)
	case table.KindBool:
		v, _ := src.BoolAt(si)
		dst.SetBool(di, v)
	case table.KindTime, table.KindDate:
		v, _ := src.TimeAt(si)
		dst.SetTime(di, v)
	}
}
