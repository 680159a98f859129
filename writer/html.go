package writer

import (
	"fmt"
	"html"
	"strings"

	"tradeflow/internal/table"
	"tradeflow/models"
)

const reportCSS = `
<style>
  body { font-family: Segoe UI, Arial, sans-serif; background: #F6F8FC; color: #0B1220; padding: 24px; }
  .card { background: white; border: 1px solid #D8E1F0; border-radius: 14px; padding: 16px; margin: 14px 0; box-shadow: 0 8px 24px rgba(15,23,42,0.06); }
  h1 { margin: 0 0 8px 0; font-size: 22px; }
  .meta { color: #5E6B85; font-size: 12px; margin-bottom: 12px; line-height: 1.5; }
  h2 { margin: 0 0 8px 0; font-size: 16px; }
  table { width: 100%; border-collapse: collapse; font-size: 12px; }
  th, td { border-bottom: 1px solid #EEF3FF; padding: 8px 10px; text-align: left; white-space: nowrap; }
  th { background: #F8FAFF; position: sticky; top: 0; z-index: 1; }
  tr:hover td { background: #F3F6FF; }
  .top { color: #0B6B2A; font-weight: 700; }
  .bottom { color: #B91C1C; font-weight: 700; }
  .total td { background: #F8FAFF; font-weight: 700; }
  .pill { display: inline-block; padding: 2px 8px; border-radius: 999px; font-size: 11px; border: 1px solid #D8E1F0; background: #F8FAFF; }
  .summary { white-space: pre-line; }
</style>
`

// RenderHTML renders a built report as a standalone HTML document. Grouped
// reports get one card per metric and section; single-metric reports get one
// table whose rows are classed by section. The function is pure; writing the
// document to disk is the exporter's job.
func RenderHTML(report *table.Table, meta models.ReportMeta, summary []string) string {
	var b strings.Builder
	b.WriteString("<!doctype html><html><head><meta charset='utf-8'>")
	b.WriteString(reportCSS)
	b.WriteString("</head><body>\n")

	writeHeaderCard(&b, meta, summary)

	if report.HasColumn("metric") {
		writeGroupedBlocks(&b, report)
	} else {
		writeSingleTable(&b, report)
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeHeaderCard(b *strings.Builder, meta models.ReportMeta, summary []string) {
	summaryHTML := "No summary."
	if len(summary) > 0 {
		escaped := make([]string, len(summary))
		for i, line := range summary {
			escaped[i] = html.EscapeString(line)
		}
		summaryHTML = strings.Join(escaped, "\n")
	}

	b.WriteString("<div class=\"card\">\n<h1>Post-Trade Report</h1>\n<div class=\"meta\">\n")
	fmt.Fprintf(b, "Range: <span class=\"pill\">%s</span> &rarr; <span class=\"pill\">%s</span>\n",
		html.EscapeString(meta.From), html.EscapeString(meta.To))
	fmt.Fprintf(b, "&bull; N: <span class=\"pill\">%d</span>\n", meta.N)
	fmt.Fprintf(b, "&bull; Ranking: <span class=\"pill\">%s</span>\n", html.EscapeString(meta.RankMode))
	if meta.Portfolio != "" && meta.Portfolio != models.PortfolioAll {
		fmt.Fprintf(b, "&bull; Portfolio: <span class=\"pill\">%s</span>\n", html.EscapeString(meta.Portfolio))
	}
	fmt.Fprintf(b, "&bull; Rows: <span class=\"pill\">%d</span>\n", meta.RowCount)
	fmt.Fprintf(b, "<div class=\"summary\">%s</div>\n", summaryHTML)
	b.WriteString("</div>\n</div>\n")
}

// writeGroupedBlocks emits one card per (metric, section) run, preserving the
// report's row order.
func writeGroupedBlocks(b *strings.Builder, report *table.Table) {
	metricCol, _ := report.Column("metric")
	sectionCol, _ := report.Column("section")

	start := 0
	for start < report.NumRows() {
		metric, _ := metricCol.StringAt(start)
		section, _ := sectionCol.StringAt(start)

		end := start + 1
		for end < report.NumRows() {
			m, _ := metricCol.StringAt(end)
			s, _ := sectionCol.StringAt(end)
			if m != metric || s != section {
				break
			}
			end++
		}

		cls := "top"
		if section == "Bottom" {
			cls = "bottom"
		}
		if section == "TOTAL" {
			fmt.Fprintf(b, "<div class='card'><h2>%s &bull; TOTAL</h2>\n", html.EscapeString(metric))
		} else {
			fmt.Fprintf(b, "<div class='card'><h2>%s &bull; <span class='%s'>%s</span></h2>\n",
				html.EscapeString(metric), cls, html.EscapeString(section))
		}
		writeTableRange(b, report, start, end, nil)
		b.WriteString("</div>\n")

		start = end
	}
}

func writeSingleTable(b *strings.Builder, report *table.Table) {
	sectionCol, _ := report.Column("section")
	rowClass := func(i int) string {
		s, _ := sectionCol.StringAt(i)
		switch s {
		case "Top":
			return "top"
		case "Bottom":
			return "bottom"
		default:
			return "total"
		}
	}
	b.WriteString("<div class='card'>\n")
	writeTableRange(b, report, 0, report.NumRows(), rowClass)
	b.WriteString("</div>\n")
}

func writeTableRange(b *strings.Builder, t *table.Table, start, end int, rowClass func(int) string) {
	b.WriteString("<table>\n<thead><tr>")
	for _, name := range t.ColumnNames() {
		fmt.Fprintf(b, "<th>%s</th>", html.EscapeString(name))
	}
	b.WriteString("</tr></thead>\n<tbody>\n")

	for i := start; i < end; i++ {
		if rowClass != nil {
			fmt.Fprintf(b, "<tr class='%s'>", rowClass(i))
		} else {
			b.WriteString("<tr>")
		}
		for _, col := range t.Columns() {
			fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(htmlCell(col, i)))
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>\n")
}

// htmlCell formats a cell for the exported document. Numeric cells render as
// whole units with thousands separators; everything else follows the display
// cache formatting.
func htmlCell(col *table.Column, i int) string {
	if col.IsNumeric() && col.Name() != "tradeNr" {
		if !col.IsValid(i) {
			return ""
		}
		return groupWhole(col.NumberAt(i))
	}
	return table.FormatCell(col, i)
}

func groupWhole(v float64) string {
	return table.GroupDigits(fmt.Sprintf("%.0f", v))
}
