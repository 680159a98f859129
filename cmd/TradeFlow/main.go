// Command TradeFlow builds one report headlessly: it loads trades for a
// date range, applies the configured report parameters, writes the HTML and
// parquet exports, and prints the KPI line. Useful for cron jobs and smoke
// checks where the dashboard is not wanted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tradeflow/config"
	"tradeflow/internal/schema"
	"tradeflow/internal/sheet"
	"tradeflow/internal/table"
	"tradeflow/logger"
	"tradeflow/models"
	"tradeflow/reader"
	"tradeflow/writer"
)

func main() {
	log := logger.GetLogger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	fromFlag := flag.String("from", "", "Report range start (YYYY-MM-DD)")
	toFlag := flag.String("to", "", "Report range end (YYYY-MM-DD)")
	presetFlag := flag.String("preset", "", "Preset name to apply instead of config defaults")
	parquetFlag := flag.Bool("parquet", false, "Also export the end-of-day rows as parquet")
	flag.Parse()

	if *fromFlag == "" || *toFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: TradeFlow -from YYYY-MM-DD -to YYYY-MM-DD [-preset name] [-parquet]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("failed to configure logger")
		os.Exit(1)
	}

	exporter, err := writer.NewExporter(cfg)
	if err != nil {
		log.WithError(err).Error("failed to create exporter")
		os.Exit(1)
	}
	presets, err := writer.NewPresetStore(cfg.Report.PresetsDir)
	if err != nil {
		log.WithError(err).Error("failed to create preset store")
		os.Exit(1)
	}

	params := sheet.ReportParams{
		From:          *fromFlag,
		To:            *toFlag,
		N:             cfg.Report.DefaultN,
		Mode:          cfg.Report.Mode,
		RankMode:      cfg.Report.RankMode,
		IncludeTop:    true,
		IncludeBottom: true,
		Metrics:       cfg.Report.Metrics,
		Fields:        cfg.Report.Fields,
	}
	if *presetFlag != "" {
		preset, err := presets.Load(*presetFlag)
		if err != nil {
			log.WithError(err).Error("failed to load preset")
			os.Exit(1)
		}
		params = sheet.ReportParams{
			From:          *fromFlag,
			To:            *toFlag,
			N:             preset.N,
			Mode:          preset.Mode,
			RankMode:      preset.RankMode,
			IncludeTop:    preset.IncludeTop,
			IncludeBottom: preset.IncludeBottom,
			Portfolio:     preset.Portfolio,
			Metrics:       preset.Metrics,
			Fields:        preset.Fields,
			ExtraMetrics:  preset.ExtraMetrics,
		}
	}

	from, err := models.ParseDate(params.From)
	if err != nil {
		log.WithError(err).Error("bad from date")
		os.Exit(1)
	}
	to, err := models.ParseDate(params.To)
	if err != nil {
		log.WithError(err).Error("bad to date")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	source := reader.NewFakeSource(reader.FakeConfig{
		Rows:         cfg.Source.Fake.Rows,
		Seed:         cfg.Source.Fake.Seed,
		TotalColumns: cfg.Schema.TotalColumns,
	})
	trades, err := loadValidated(ctx, source, cfg.Schema.TotalColumns, from, to)
	if err != nil {
		log.WithError(err).Error("failed to load trades")
		os.Exit(1)
	}
	log.WithComponent("cli").WithFields(logger.Fields{"rows": trades.NumRows()}).Info("trades loaded")

	report := sheet.NewReportSheet(params, exporter, presets)
	report.OnTableLoaded(trades)

	result, _ := report.Result()
	if result.Status != "" {
		fmt.Println(result.Status)
		os.Exit(1)
	}

	path, err := report.ExportHTML(ctx)
	if err != nil {
		log.WithError(err).Error("failed to export report")
		os.Exit(1)
	}
	fmt.Printf("report written to %s\n", path)

	if *parquetFlag && cfg.Export.Parquet.Enabled {
		path, err := report.ExportParquet(ctx)
		if err != nil {
			log.WithError(err).Error("failed to export parquet")
			os.Exit(1)
		}
		fmt.Printf("end-of-day snapshot written to %s\n", path)
	}

	if result.KPIs != nil {
		fmt.Printf("top=%.2f bottom=%.2f total=%.0f net=%.2f\n",
			result.KPIs.TopSum, result.KPIs.BottomSum, result.KPIs.TotalSum, result.KPIs.Net)
	}
}

// loadValidated fetches trades and checks the production layout before
// anything downstream sees the table.
func loadValidated(ctx context.Context, src reader.TradeSource, totalColumns int, from, to time.Time) (*table.Table, error) {
	trades, err := src.LoadTrades(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(trades, totalColumns); err != nil {
		return nil, err
	}
	return trades, nil
}
