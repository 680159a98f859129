package models

// PortfolioAll is the sentinel portfolio filter value that matches every
// portfolio, and the label written into identity cells of TOTAL rows in
// single-metric reports.
const PortfolioAll = "ALL"

// ReportMeta carries the parameters a report was built with, for rendering
// and export naming. Dates are YYYY-MM-DD strings.
type ReportMeta struct {
	From      string
	To        string
	N         int
	Mode      string
	RankMode  string
	Metrics   []string
	Portfolio string
	RowCount  int
}

// Preset is the persisted report configuration. It round-trips through the
// preset store as a small JSON document.
type Preset struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	N             int      `json:"n"`
	Mode          string   `json:"mode"`
	RankMode      string   `json:"rank_mode"`
	IncludeTop    bool     `json:"include_top"`
	IncludeBottom bool     `json:"include_bottom"`
	Portfolio     string   `json:"portfolio,omitempty"`
	Metrics       []string `json:"metrics"`
	Fields        []string `json:"fields"`
	ExtraMetrics  []string `json:"extra_metrics,omitempty"`
}
