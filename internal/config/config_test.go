package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.Upstream.Limit != 20 {
		t.Errorf("upstream limit = %d, want 20", cfg.Upstream.Limit)
	}
	if cfg.Dashboard.PageSize != 12 {
		t.Errorf("page size = %d, want 12", cfg.Dashboard.PageSize)
	}
	if cfg.Dashboard.RefreshInterval != 30*time.Second {
		t.Errorf("refresh interval = %s, want 30s", cfg.Dashboard.RefreshInterval)
	}
	if cfg.Dashboard.TrendingThreshold != 100 {
		t.Errorf("trending threshold = %d, want 100", cfg.Dashboard.TrendingThreshold)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pumpwatch.yaml")
	yaml := `
port: "9000"
upstream:
  url: https://upstream.example/live
  limit: 50
  timeout: 5s
dashboard:
  trending_threshold: 1000
  refresh_interval: 1m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("UPSTREAM_LIMIT", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port = %q, want 9000 from file", cfg.Port)
	}
	if cfg.Upstream.URL != "https://upstream.example/live" {
		t.Errorf("upstream url = %q", cfg.Upstream.URL)
	}
	if cfg.Upstream.Limit != 30 {
		t.Errorf("upstream limit = %d, want env override 30", cfg.Upstream.Limit)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", cfg.Upstream.Timeout)
	}
	if cfg.Dashboard.TrendingThreshold != 1000 {
		t.Errorf("threshold = %d, want 1000", cfg.Dashboard.TrendingThreshold)
	}
	if cfg.Dashboard.RefreshInterval != time.Minute {
		t.Errorf("refresh interval = %s, want 1m", cfg.Dashboard.RefreshInterval)
	}
	if cfg.Dashboard.PageSize != 12 {
		t.Errorf("page size = %d, want default 12", cfg.Dashboard.PageSize)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	tests := []struct {
		key, value string
	}{
		{"PAGE_SIZE", "twelve"},
		{"PAGE_SIZE", "0"},
		{"REFRESH_INTERVAL", "soon"},
		{"TRENDING_THRESHOLD", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
