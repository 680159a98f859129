package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "tradeflow/config"
	"tradeflow/internal/metadata"
	"tradeflow/internal/metrics"
	"tradeflow/internal/table"
	"tradeflow/logger"
	"tradeflow/models"
	"tradeflow/processor"
)

// Exporter writes report artifacts to the local reports directory, records
// them in the export catalog, and optionally mirrors them to S3.
type Exporter struct {
	cfg      *appconfig.Config
	log      *logger.Log
	s3Client *s3.Client
	metaGen  *metadata.Generator
}

func NewExporter(cfg *appconfig.Config) (*Exporter, error) {
	log := logger.GetLogger()

	if err := os.MkdirAll(cfg.Export.ReportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory %s: %w", cfg.Export.ReportsDir, err)
	}

	e := &Exporter{
		cfg:     cfg,
		log:     log,
		metaGen: metadata.NewGenerator(filepath.Join(cfg.Export.ReportsDir, "_catalog"), cfg.Tradeflow.Name),
	}

	if cfg.Storage.S3.Enabled {
		client, err := newS3Client(cfg)
		if err != nil {
			return nil, err
		}
		e.s3Client = client
		log.WithComponent("exporter").WithFields(logger.Fields{
			"bucket":     cfg.Storage.S3.Bucket,
			"region":     cfg.Storage.S3.Region,
			"endpoint":   cfg.Storage.S3.Endpoint,
			"path_style": cfg.Storage.S3.PathStyle,
		}).Info("s3 mirroring enabled")
	}

	return e, nil
}

// ExportReportHTML renders the report and writes it as
// report_<from>_to_<to>.html under the reports directory; single-metric
// reports carry the ranked metric in the name as well. It returns the path
// of the written file.
func (e *Exporter) ExportReportHTML(ctx context.Context, report *table.Table, meta models.ReportMeta, summary []string) (string, error) {
	start := time.Now()
	doc := []byte(RenderHTML(report, meta, summary))

	name := fmt.Sprintf("report_%s_to_%s.html", sanitizeStamp(meta.From), sanitizeStamp(meta.To))
	if processor.ParseMode(meta.Mode) == processor.ModeSingle && len(meta.Metrics) > 0 {
		name = fmt.Sprintf("report_%s_to_%s_%s.html",
			sanitizeStamp(meta.From), sanitizeStamp(meta.To), sanitizeStamp(meta.Metrics[0]))
	}
	path := filepath.Join(e.cfg.Export.ReportsDir, name)

	if err := writeFileAtomic(path, doc); err != nil {
		return "", err
	}

	if err := e.recordArtifact(ctx, path, "html", "text/html; charset=utf-8", int64(report.NumRows()), meta, doc); err != nil {
		return "", err
	}

	metrics.IncrementExport("html")
	logger.IncrementExport("html", len(doc))
	logger.LogPerformanceEntry(e.log.WithComponent("exporter"), "exporter", "export_html", time.Since(start), logger.Fields{
		"path":       path,
		"bytes":      len(doc),
		"rows":       report.NumRows(),
		"from":       meta.From,
		"to":         meta.To,
		"rank_mode":  meta.RankMode,
		"n_per_side": meta.N,
	})
	return path, nil
}

// ExportEODParquet writes the end-of-day table as a parquet file next to the
// HTML reports. It returns the path of the written file.
func (e *Exporter) ExportEODParquet(ctx context.Context, eod *table.Table, meta models.ReportMeta) (string, error) {
	start := time.Now()

	compression := e.cfg.Export.Parquet.Compression
	data, records, err := buildParquetFile(eod, compression)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("eod_%s_to_%s.parquet", sanitizeStamp(meta.From), sanitizeStamp(meta.To))
	path := filepath.Join(e.cfg.Export.ReportsDir, name)

	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}

	if err := e.recordArtifact(ctx, path, "parquet", "application/octet-stream", records, meta, data); err != nil {
		return "", err
	}

	metrics.IncrementExport("parquet")
	logger.IncrementExport("parquet", len(data))
	logger.LogPerformanceEntry(e.log.WithComponent("exporter"), "exporter", "export_parquet", time.Since(start), logger.Fields{
		"path":        path,
		"bytes":       len(data),
		"records":     records,
		"compression": compression,
	})
	return path, nil
}

func (e *Exporter) recordArtifact(ctx context.Context, path, kind, contentType string, records int64, meta models.ReportMeta, data []byte) error {
	err := e.metaGen.AddArtifact(metadata.Artifact{
		Path:        path,
		Kind:        kind,
		FileSize:    int64(len(data)),
		RecordCount: records,
		Partition:   map[string]any{"from": meta.From, "to": meta.To},
		Timestamp:   time.Now(),
	})
	if err != nil {
		e.log.WithComponent("exporter").WithError(err).Warn("failed to record export in catalog")
	}

	if e.s3Client != nil {
		key := fmt.Sprintf("reports/%s", filepath.Base(path))
		if err := e.uploadToS3(ctx, key, contentType, data); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}

// sanitizeStamp makes a date or timestamp safe for filenames.
func sanitizeStamp(s string) string {
	return strings.ReplaceAll(s, ":", "-")
}
