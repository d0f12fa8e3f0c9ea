package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sydlexius/filescan/internal/event"
	"github.com/sydlexius/filescan/internal/filesystem"
)

// Whole-scan errors. Per-node problems never surface here; they are
// reported as failed entries in the result.
var (
	ErrEmptyPath    = errors.New("path cannot be empty")
	ErrNotFound     = errors.New("path not found")
	ErrNotDirectory = errors.New("not a directory")
)

// Service runs directory scans. Scans are independent and may run concurrently.
type Service struct {
	logger   *slog.Logger
	eventBus *event.Bus
	now      func() time.Time

	mu     sync.Mutex
	status ScanStatus
	active int
}

// NewService creates a scanner service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger.With(slog.String("component", "scanner")),
		now:    time.Now,
		status: StatusIdle,
	}
}

// SetEventBus sets the event bus for publishing scan events.
func (s *Service) SetEventBus(bus *event.Bus) {
	s.eventBus = bus
}

// Status reports the state of the most recent scan, or scanning while any
// scan is running.
func (s *Service) Status() ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Scan validates rootPath, walks it and returns the collected entries,
// statistics and per-node failures. observer may be nil. The observer is
// called with (0, rootPath) before the walk, with throttled updates during
// it, and with (len(entries), "Completed", 100%) once the walk has finished.
func (s *Service) Scan(ctx context.Context, rootPath string, opts ScanOptions, observer ProgressFunc) (*ScanResult, error) {
	start := s.now()
	scanID := opts.ID
	if scanID == "" {
		scanID = uuid.New().String()
	}

	root, err := validateRoot(rootPath)
	if err != nil {
		s.logger.Warn("scan rejected", slog.String("path", rootPath), slog.String("error", err.Error()))
		s.publish(event.ScanFailed, map[string]any{"scanId": scanID, "rootPath": rootPath, "error": err.Error()})
		return nil, err
	}

	s.begin()
	s.logger.Info("scan started", slog.String("scan_id", scanID), slog.String("root", root))
	s.publish(event.ScanStarted, map[string]any{"scanId": scanID, "rootPath": root})

	observe := s.fanOut(scanID, observer)
	notify(observe, NewProgress(0, rootPath), s.logger)

	w := newWalker(root, opts, observe, s.logger, s.now)
	if err := w.walk(ctx); err != nil {
		s.finish(StatusError)
		s.logger.Warn("scan aborted", slog.String("scan_id", scanID), slog.String("error", err.Error()))
		s.publish(event.ScanFailed, map[string]any{"scanId": scanID, "rootPath": root, "error": err.Error()})
		return nil, fmt.Errorf("scanning %s: %w", rootPath, err)
	}
	elapsed := s.now().Sub(start)

	result := &ScanResult{
		ID:            scanID,
		RootPath:      root,
		Entries:       w.entries,
		Stats:         w.stats,
		FailedEntries: w.failed,
		CompletedAt:   s.now().UTC(),
		DurationMS:    elapsed.Milliseconds(),
	}

	notify(observe, NewProgress(int64(len(result.Entries)), CompletedPath).WithProgress(100), s.logger)
	s.finish(StatusCompleted)

	s.logger.Info("scan completed",
		slog.String("scan_id", scanID),
		slog.Int64("files", result.Stats.TotalFiles),
		slog.Int64("folders", result.Stats.TotalFolders),
		slog.Int("failed", len(result.FailedEntries)),
		slog.Int64("duration_ms", result.DurationMS),
	)
	s.publish(event.ScanCompleted, map[string]any{
		"scanId":       scanID,
		"rootPath":     root,
		"totalFiles":   result.Stats.TotalFiles,
		"totalFolders": result.Stats.TotalFolders,
		"totalSize":    result.Stats.TotalSize,
		"failedCount":  len(result.FailedEntries),
		"durationMs":   result.DurationMS,
	})
	return result, nil
}

// ScanDirectory scans root without progress reporting or logging.
func ScanDirectory(ctx context.Context, root string, opts ScanOptions) (*ScanResult, error) {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil))).Scan(ctx, root, opts, nil)
}

// validateRoot checks that rootPath names an existing directory and returns
// its canonical form.
func validateRoot(rootPath string) (string, error) {
	if rootPath == "" {
		return "", ErrEmptyPath
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, rootPath)
		}
		return "", fmt.Errorf("reading %s: %w", rootPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, rootPath)
	}
	root, err := filesystem.Canonical(rootPath)
	if err != nil {
		return "", err
	}
	return root, nil
}

// fanOut forwards each notification to the caller's observer and to the bus.
func (s *Service) fanOut(scanID string, observer ProgressFunc) ProgressFunc {
	if s.eventBus == nil {
		return observer
	}
	return func(p ScanProgress) error {
		data := map[string]any{
			"scanId":       scanID,
			"scannedCount": p.ScannedCount,
			"currentPath":  p.CurrentPath,
		}
		if p.EstimatedProgress != nil {
			data["estimatedProgress"] = *p.EstimatedProgress
		}
		s.publish(event.ScanProgress, data)
		if observer == nil {
			return nil
		}
		return observer(p)
	}
}

func (s *Service) publish(t event.Type, data map[string]any) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(event.Event{Type: t, Timestamp: time.Now().UTC(), Data: data})
}

func (s *Service) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active++
	s.status = StatusScanning
}

func (s *Service) finish(status ScanStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	if s.active == 0 {
		s.status = status
	}
}
