package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tradeflow/config"
	"tradeflow/internal/app"
	"tradeflow/internal/dashboard"
	"tradeflow/internal/metrics"
	"tradeflow/internal/sheet"
	"tradeflow/logger"
	"tradeflow/reader"
	"tradeflow/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	fromFlag := flag.String("from", "", "Initial load range start (YYYY-MM-DD)")
	toFlag := flag.String("to", "", "Initial load range end (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Tradeflow.Name,
		"version": cfg.Tradeflow.Version,
	}).Info("starting tradeflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		interval := cfg.Logging.ReportInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		logger.StartReport(ctx, log, interval)
	}

	if cfg.Metrics.Prometheus {
		metrics.Init()
	}
	if cfg.Metrics.CloudWatch.Enabled {
		metrics.InitCloudWatch(cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace, cfg.Metrics.CloudWatch.Dashboard)
	}

	source := reader.NewFakeSource(reader.FakeConfig{
		Rows:         cfg.Source.Fake.Rows,
		Seed:         cfg.Source.Fake.Seed,
		TotalColumns: cfg.Schema.TotalColumns,
	})
	loader := reader.NewLoader(source, cfg.Schema.TotalColumns, cfg.Source.Load.RatePerSec, cfg.Source.Load.Burst)

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

	rawSheet := sheet.NewRawSheet()
	eodSheet := sheet.NewEODSheet()
	reportSheet := sheet.NewReportSheet(sheet.ReportParams{
		N:             cfg.Report.DefaultN,
		Mode:          cfg.Report.Mode,
		RankMode:      cfg.Report.RankMode,
		IncludeTop:    true,
		IncludeBottom: true,
		Metrics:       cfg.Report.Metrics,
		Fields:        cfg.Report.Fields,
	}, exporter, presets)

	application := app.New(loader, []sheet.Sheet{rawSheet, eodSheet, reportSheet})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		application.Run(ctx)
	}()

	dash, err := dashboard.NewServer(cfg.Dashboard, log, application, reportSheet, rawSheet, eodSheet)
	if err != nil {
		log.WithError(err).Error("failed to create dashboard server")
		os.Exit(1)
	}
	if dash != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dash.Run(ctx, cfg.Tradeflow.Name); err != nil {
				log.WithError(err).Warn("dashboard server exited")
			}
		}()
		log.WithComponent("main").WithFields(logger.Fields{"address": dash.Address()}).Info("dashboard started")
	} else {
		log.WithComponent("main").Info("dashboard disabled")
	}

	if *fromFlag != "" && *toFlag != "" {
		if _, err := application.Load(ctx, *fromFlag, *toFlag); err != nil {
			log.WithError(err).Warn("initial load rejected")
		}
	}

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	log.Info("waiting for in-flight loads")
	loader.Wait()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("tradeflow stopped")
}
