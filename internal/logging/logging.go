// Package logging builds the process-wide slog logger and lets it be
// reconfigured without restarting.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Console selects the terminal stream, "stderr" or "stdout". Scan reports
	// go to stdout, so stderr is the default.
	Console        string `yaml:"console"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Level:          "info",
		Format:         "text",
		Console:        "stderr",
		FileMaxSizeMB:  100,
		FileMaxFiles:   3,
		FileMaxAgeDays: 30,
	}
}

// SwappableHandler is a thread-safe slog.Handler that delegates to an inner
// handler which can be atomically swapped at runtime.
type SwappableHandler struct {
	inner atomic.Pointer[slog.Handler]
}

// NewSwappableHandler creates a SwappableHandler wrapping h.
func NewSwappableHandler(h slog.Handler) *SwappableHandler {
	s := &SwappableHandler{}
	s.inner.Store(&h)
	return s
}

// Swap replaces the inner handler.
func (s *SwappableHandler) Swap(h slog.Handler) {
	s.inner.Store(&h)
}

// Enabled delegates to the inner handler.
func (s *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*s.inner.Load()).Enabled(ctx, level)
}

// Handle delegates to the inner handler.
func (s *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return (*s.inner.Load()).Handle(ctx, r)
}

// WithAttrs returns a new SwappableHandler whose inner handler has the attrs.
func (s *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewSwappableHandler((*s.inner.Load()).WithAttrs(attrs))
}

// WithGroup returns a new SwappableHandler whose inner handler has the group.
func (s *SwappableHandler) WithGroup(name string) slog.Handler {
	return NewSwappableHandler((*s.inner.Load()).WithGroup(name))
}

// Manager owns the logger lifecycle and supports runtime reconfiguration.
type Manager struct {
	levelVar *slog.LevelVar
	handler  *SwappableHandler
	mu       sync.Mutex
	config   Config
	closer   io.Closer // lumberjack writer, if any
}

// NewManager creates a Manager and returns it along with a ready-to-use logger.
func NewManager(cfg Config) (*Manager, *slog.Logger) {
	lvl := &slog.LevelVar{}
	lvl.Set(parseLevel(cfg.Level))

	writer, closer := buildWriter(cfg)
	m := &Manager{
		levelVar: lvl,
		handler:  NewSwappableHandler(buildHandler(writer, lvl, cfg.Format)),
		config:   cfg,
		closer:   closer,
	}
	return m, slog.New(m.handler)
}

// Reconfigure applies a new configuration. Level changes take effect
// immediately; output or format changes rebuild the handler, which loggers
// derived before the call do not see.
func (m *Manager) Reconfigure(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.levelVar.Set(parseLevel(cfg.Level))

	old := m.config
	old.Level = cfg.Level
	if old != cfg {
		if m.closer != nil {
			m.closer.Close() //nolint:errcheck
			m.closer = nil
		}
		writer, closer := buildWriter(cfg)
		m.handler.Swap(buildHandler(writer, m.levelVar, cfg.Format))
		m.closer = closer
	}
	m.config = cfg
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Close releases the log file writer, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closer == nil {
		return nil
	}
	err := m.closer.Close()
	m.closer = nil
	return err
}

// ValidLevel reports whether s names a level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat reports whether s names a handler format.
func ValidFormat(s string) bool {
	return s == "text" || s == "json"
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildWriter returns the console stream, tee'd into a rotating file when a
// file path is configured. The closer is the lumberjack logger.
func buildWriter(cfg Config) (io.Writer, io.Closer) {
	var console io.Writer = os.Stderr
	if cfg.Console == "stdout" {
		console = os.Stdout
	}
	if cfg.FilePath == "" {
		return console, nil
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    positiveOr(cfg.FileMaxSizeMB, 100),
		MaxBackups: positiveOr(cfg.FileMaxFiles, 3),
		MaxAge:     positiveOr(cfg.FileMaxAgeDays, 30),
	}
	return io.MultiWriter(console, lj), lj
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func buildHandler(w io.Writer, leveler slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: leveler}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
