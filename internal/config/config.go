// Package config loads settings from a YAML file overlaid by FS_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/filescan/internal/logging"
	"github.com/sydlexius/filescan/internal/scanner"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Scan    ScanConfig     `yaml:"scan"`
	Trash   TrashConfig    `yaml:"trash"`
	Catalog CatalogConfig  `yaml:"catalog"`
	Logging logging.Config `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
	// MutationsPerMinute bounds delete and copy requests per client IP.
	MutationsPerMinute int `yaml:"mutations_per_minute"`
}

// ScanConfig holds defaults for scans that do not set their own options.
type ScanConfig struct {
	MaxDepth         int           `yaml:"max_depth"`
	FollowSymlinks   bool          `yaml:"follow_symlinks"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
}

// Options converts the scan defaults to scanner options.
func (s ScanConfig) Options() scanner.ScanOptions {
	return scanner.ScanOptions{
		MaxDepth:         s.MaxDepth,
		FollowSymlinks:   s.FollowSymlinks,
		ProgressInterval: s.ProgressInterval,
	}
}

// TrashConfig holds the trash location. An empty Dir means the user's home trash.
type TrashConfig struct {
	Dir string `yaml:"dir"`
}

// CatalogConfig holds the scan history database. An empty Path disables history.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			BasePath:           "/",
			MutationsPerMinute: 30,
		},
		Scan: ScanConfig{
			ProgressInterval: scanner.DefaultProgressInterval,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() error {
	ints := []struct {
		key string
		dst *int
	}{
		{"FS_PORT", &c.Server.Port},
		{"FS_MUTATIONS_PER_MINUTE", &c.Server.MutationsPerMinute},
		{"FS_SCAN_MAX_DEPTH", &c.Scan.MaxDepth},
		{"FS_LOG_FILE_MAX_SIZE_MB", &c.Logging.FileMaxSizeMB},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	if v := os.Getenv("FS_SCAN_FOLLOW_SYMLINKS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FS_SCAN_FOLLOW_SYMLINKS: %w", err)
		}
		c.Scan.FollowSymlinks = b
	}
	if v := os.Getenv("FS_SCAN_PROGRESS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FS_SCAN_PROGRESS_INTERVAL: %w", err)
		}
		c.Scan.ProgressInterval = d
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"FS_BASE_PATH", &c.Server.BasePath},
		{"FS_TRASH_DIR", &c.Trash.Dir},
		{"FS_CATALOG_PATH", &c.Catalog.Path},
		{"FS_LOG_LEVEL", &c.Logging.Level},
		{"FS_LOG_FORMAT", &c.Logging.Format},
		{"FS_LOG_FILE", &c.Logging.FilePath},
	}
	for _, e := range strs {
		if v := os.Getenv(e.key); v != "" {
			*e.dst = v
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.MutationsPerMinute < 1 {
		return fmt.Errorf("invalid mutations_per_minute: %d", c.Server.MutationsPerMinute)
	}
	if c.Scan.MaxDepth < 0 {
		return fmt.Errorf("invalid scan max_depth: %d", c.Scan.MaxDepth)
	}
	if c.Scan.ProgressInterval < 0 {
		return fmt.Errorf("invalid scan progress_interval: %s", c.Scan.ProgressInterval)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}
