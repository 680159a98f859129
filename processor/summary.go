package processor

import (
	"fmt"
	"math"
	"time"

	"tradeflow/internal/table"
)

const summaryMetricLimit = 3

// SummaryLines describes the filtered/ranged end-of-day universe and the
// first few metrics: sum, mean, min, max and the positive/negative row
// split. The same lines feed the report sheet and the HTML header card.
func SummaryLines(rng *table.Table, metrics []string) []string {
	if rng.Empty() {
		return []string{"No rows in range."}
	}

	lines := []string{fmt.Sprintf(
		"Universe: instruments=%s • days=%s • rows=%s",
		groupCount(countUniqueStrings(rng, "instrument", rng.NumRows())),
		groupCount(countUniqueDays(rng, "day", rng.NumRows())),
		groupCount(rng.NumRows()),
	)}

	shown := 0
	for _, m := range metrics {
		if shown >= summaryMetricLimit {
			break
		}
		col, ok := rng.Column(m)
		if !ok || !col.IsNumeric() {
			continue
		}
		shown++

		sum, minV, maxV := 0.0, math.Inf(1), math.Inf(-1)
		pos, neg := 0, 0
		for i := 0; i < rng.NumRows(); i++ {
			v := col.NumberAt(i)
			sum += v
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
			if v > 0 {
				pos++
			} else if v < 0 {
				neg++
			}
		}
		mean := sum / float64(rng.NumRows())
		lines = append(lines, fmt.Sprintf(
			"%s: Σ=%s | μ=%s | min=%s | max=%s | +%d/-%d",
			m, groupFloat(sum), groupFloat(mean), groupFloat(minV), groupFloat(maxV), pos, neg))
	}

	if len(metrics) > summaryMetricLimit {
		lines = append(lines, fmt.Sprintf("… (summary shows first %d metrics)", summaryMetricLimit))
	}
	return lines
}

func countUniqueStrings(t *table.Table, column string, fallback int) int {
	col, ok := t.Column(column)
	if !ok {
		return fallback
	}
	seen := make(map[string]bool)
	for i := 0; i < t.NumRows(); i++ {
		if s, ok := col.StringAt(i); ok {
			seen[s] = true
		}
	}
	return len(seen)
}

func countUniqueDays(t *table.Table, column string, fallback int) int {
	col, ok := t.Column(column)
	if !ok {
		return fallback
	}
	seen := make(map[time.Time]bool)
	for i := 0; i < t.NumRows(); i++ {
		if d, ok := col.TimeAt(i); ok {
			seen[d] = true
		}
	}
	return len(seen)
}

// groupCount formats an integer with thousands separators.
func groupCount(n int) string {
	return table.GroupDigits(fmt.Sprintf("%d", n))
}

// groupFloat formats a float rounded to whole units with thousands
// separators.
func groupFloat(v float64) string {
	return table.GroupDigits(fmt.Sprintf("%.0f", v))
}
