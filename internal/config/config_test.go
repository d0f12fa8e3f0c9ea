package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filescan.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "" {
		t.Errorf("base path = %q, want empty after trimming", cfg.Server.BasePath)
	}
	if cfg.Scan.ProgressInterval != 100*time.Millisecond {
		t.Errorf("progress interval = %v, want 100ms", cfg.Scan.ProgressInterval)
	}
	if cfg.Catalog.Path != "" {
		t.Errorf("catalog path = %q, want disabled", cfg.Catalog.Path)
	}
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  base_path: /files/
scan:
  max_depth: 4
  follow_symlinks: true
  progress_interval: 250ms
trash:
  dir: /tmp/trash
catalog:
  path: /var/lib/filescan/history.db
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.BasePath != "/files" {
		t.Errorf("server = %+v", cfg.Server)
	}
	opts := cfg.Scan.Options()
	if opts.MaxDepth != 4 || !opts.FollowSymlinks || opts.ProgressInterval != 250*time.Millisecond {
		t.Errorf("scan options = %+v", opts)
	}
	if cfg.Trash.Dir != "/tmp/trash" {
		t.Errorf("trash dir = %q", cfg.Trash.Dir)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	// Unset keys keep their defaults.
	if cfg.Logging.Console != "stderr" {
		t.Errorf("console = %q, want stderr", cfg.Logging.Console)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("FS_PORT", "9100")
	t.Setenv("FS_SCAN_FOLLOW_SYMLINKS", "true")
	t.Setenv("FS_SCAN_PROGRESS_INTERVAL", "50ms")
	t.Setenv("FS_CATALOG_PATH", "/data/history.db")
	t.Setenv("FS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	if !cfg.Scan.FollowSymlinks {
		t.Error("follow symlinks not applied from env")
	}
	if cfg.Scan.ProgressInterval != 50*time.Millisecond {
		t.Errorf("progress interval = %v, want 50ms", cfg.Scan.ProgressInterval)
	}
	if cfg.Catalog.Path != "/data/history.db" {
		t.Errorf("catalog path = %q", cfg.Catalog.Path)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"port", "server:\n  port: 70000\n", nil, "invalid port"},
		{"depth", "scan:\n  max_depth: -1\n", nil, "max_depth"},
		{"level", "logging:\n  level: loud\n", nil, "log level"},
		{"format", "logging:\n  format: xml\n", nil, "log format"},
		{"env int", "", map[string]string{"FS_PORT": "eighty"}, "FS_PORT"},
		{"env bool", "", map[string]string{"FS_SCAN_FOLLOW_SYMLINKS": "maybe"}, "FS_SCAN_FOLLOW_SYMLINKS"},
		{"yaml", "server: [", nil, "loading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}
