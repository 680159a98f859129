package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tradeflow TradeflowConfig `yaml:"tradeflow"`
	Schema    SchemaConfig    `yaml:"schema"`
	Source    SourceConfig    `yaml:"source"`
	Report    ReportConfig    `yaml:"report"`
	Export    ExportConfig    `yaml:"export"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type TradeflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type SchemaConfig struct {
	TotalColumns int `yaml:"total_columns"`
}

type SourceConfig struct {
	Provider string             `yaml:"provider"`
	Fake     FakeProviderConfig `yaml:"fake"`
	Load     LoadConfigSection  `yaml:"load"`
}

type FakeProviderConfig struct {
	Rows int   `yaml:"rows"`
	Seed int64 `yaml:"seed"`
}

type LoadConfigSection struct {
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

type ReportConfig struct {
	DefaultN   int      `yaml:"default_n"`
	Mode       string   `yaml:"mode"`
	RankMode   string   `yaml:"rank_mode"`
	Metrics    []string `yaml:"metrics"`
	Fields     []string `yaml:"fields"`
	PresetsDir string   `yaml:"presets_dir"`
}

type ExportConfig struct {
	ReportsDir string        `yaml:"reports_dir"`
	Parquet    ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type DashboardConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Address         string        `yaml:"address"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	LogHistory      int           `yaml:"log_history"`
	MetricsHistory  int           `yaml:"metrics_history"`
}

type LoggingConfig struct {
	Level          string        `yaml:"level"`
	Format         string        `yaml:"format"`
	Output         string        `yaml:"output"`
	MaxAge         int           `yaml:"max_age"`
	ReportInterval time.Duration `yaml:"report_interval"`
}

type MetricsConfig struct {
	Prometheus bool             `yaml:"prometheus"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
	Dashboard string `yaml:"dashboard"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Schema: SchemaConfig{TotalColumns: 64},
		Source: SourceConfig{
			Provider: "fake",
			Fake:     FakeProviderConfig{Rows: 200_000, Seed: 42},
			Load:     LoadConfigSection{RatePerSec: 1, Burst: 2},
		},
		Report: ReportConfig{
			DefaultN:   5,
			Mode:       "Grouped",
			RankMode:   "Value",
			PresetsDir: "presets",
		},
		Export: ExportConfig{ReportsDir: "reports"},
		Dashboard: DashboardConfig{
			Address:         ":8080",
			RefreshInterval: 2 * time.Second,
			LogHistory:      500,
			MetricsHistory:  500,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "json",
			Output:         "stdout",
			ReportInterval: time.Minute,
		},
		Metrics: MetricsConfig{Prometheus: true},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Tradeflow.Name == "" {
		return fmt.Errorf("tradeflow.name is required")
	}
	if cfg.Tradeflow.Version == "" {
		return fmt.Errorf("tradeflow.version is required")
	}

	if cfg.Schema.TotalColumns <= 0 {
		return fmt.Errorf("schema.total_columns must be greater than 0")
	}

	switch cfg.Source.Provider {
	case "fake":
	default:
		return fmt.Errorf("source.provider '%s' is not supported", cfg.Source.Provider)
	}
	if cfg.Source.Fake.Rows <= 0 {
		return fmt.Errorf("source.fake.rows must be greater than 0")
	}
	if cfg.Source.Load.Burst <= 0 {
		return fmt.Errorf("source.load.burst must be greater than 0")
	}

	if cfg.Report.DefaultN <= 0 {
		return fmt.Errorf("report.default_n must be greater than 0")
	}
	if cfg.Report.PresetsDir == "" {
		return fmt.Errorf("report.presets_dir is required")
	}

	if cfg.Export.ReportsDir == "" {
		return fmt.Errorf("export.reports_dir is required")
	}

	if cfg.Dashboard.Enabled {
		if cfg.Dashboard.Address == "" {
			return fmt.Errorf("dashboard.address is required when the dashboard is enabled")
		}
		if cfg.Dashboard.RefreshInterval <= 0 {
			return fmt.Errorf("dashboard.refresh_interval must be greater than 0")
		}
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
