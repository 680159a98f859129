package config

import (
	"os"
	"testing"
)

// writeTempConfig creates a configuration file with the given content and
// returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `tradeflow:
  name: "TestApp"
  version: "1.0"
source:
  fake:
    rows: 1000
    seed: 7
report:
  default_n: 10
storage:
  s3:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Tradeflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Tradeflow.Name)
	}
	if cfg.Source.Fake.Rows != 1000 {
		t.Errorf("unexpected rows: %d", cfg.Source.Fake.Rows)
	}
	if cfg.Report.DefaultN != 10 {
		t.Errorf("unexpected default n: %d", cfg.Report.DefaultN)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, `tradeflow:
  name: "TestApp"
  version: "1.0"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Schema.TotalColumns != 64 {
		t.Errorf("default total_columns = %d, want 64", cfg.Schema.TotalColumns)
	}
	if cfg.Source.Provider != "fake" || cfg.Source.Fake.Rows != 200_000 || cfg.Source.Fake.Seed != 42 {
		t.Errorf("unexpected source defaults: %+v", cfg.Source)
	}
	if cfg.Report.PresetsDir != "presets" || cfg.Export.ReportsDir != "reports" {
		t.Errorf("unexpected directory defaults: %q / %q", cfg.Report.PresetsDir, cfg.Export.ReportsDir)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadConfigMissingName(t *testing.T) {
	path := writeTempConfig(t, `tradeflow:
  version: "1.0"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for missing tradeflow.name")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	path := writeTempConfig(t, `tradeflow:
  name: "TestApp"
  version: "1.0"
source:
  provider: "oracle"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for unsupported provider")
	}
}

func TestLoadConfigS3Validation(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	path := writeTempConfig(t, `tradeflow:
  name: "TestApp"
  version: "1.0"
storage:
  s3:
    enabled: true
    bucket: "my-bucket"
    region: "eu-central-1"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for missing S3 credentials")
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"trade-reports", true},
		{"a.b.c", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
		{".leading", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}
