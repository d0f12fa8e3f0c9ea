// Package fileops applies delete-to-trash and copy operations to batches of
// paths, reporting each item's outcome instead of stopping at the first error.
package fileops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/sydlexius/filescan/internal/event"
	"github.com/sydlexius/filescan/internal/failure"
	"github.com/sydlexius/filescan/internal/trash"
)

// Whole-operation errors for Copy. Nothing has been copied when one is returned.
var (
	ErrEmptyTarget        = errors.New("target folder cannot be empty")
	ErrTargetNotFound     = errors.New("target folder not found")
	ErrTargetNotDirectory = errors.New("target path is not a directory")
)

// Operation names a batch kind.
type Operation string

// Batch kinds.
const (
	OpDelete Operation = "delete"
	OpCopy   Operation = "copy"
)

// Result summarizes one batch.
type Result struct {
	Operation    Operation       `json:"operation"`
	SuccessCount int             `json:"successCount"`
	FailedCount  int             `json:"failedCount"`
	FailedFiles  []failure.Entry `json:"failedFiles"`
	DurationMS   int64           `json:"durationMs"`
}

// Err folds the failed items into a single error, or returns nil when every
// item succeeded.
func (r *Result) Err() error {
	var merr *multierror.Error
	for _, f := range r.FailedFiles {
		merr = multierror.Append(merr, fmt.Errorf("%s: %s (%s)", f.Path, f.ErrorMessage, f.Reason))
	}
	return merr.ErrorOrNil()
}

func (r *Result) succeed() { r.SuccessCount++ }

func (r *Result) fail(path string, reason failure.Reason, msg string) {
	r.FailedCount++
	r.FailedFiles = append(r.FailedFiles, failure.New(path, reason, msg))
}

// Processor runs batches sequentially in input order.
type Processor struct {
	fs       afero.Fs
	trasher  trash.Trasher
	logger   *slog.Logger
	eventBus *event.Bus
}

// NewProcessor creates a processor. fsys backs existence checks and copies;
// trasher performs deletions.
func NewProcessor(fsys afero.Fs, trasher trash.Trasher, logger *slog.Logger) *Processor {
	return &Processor{
		fs:      fsys,
		trasher: trasher,
		logger:  logger.With(slog.String("component", "fileops")),
	}
}

// SetEventBus sets the event bus for publishing batch summaries.
func (p *Processor) SetEventBus(bus *event.Bus) {
	p.eventBus = bus
}

// Delete moves each path to the trash. Missing paths are reported, not fatal.
// Only context cancellation returns an error.
func (p *Processor) Delete(ctx context.Context, paths []string) (*Result, error) {
	start := time.Now()
	res := newResult(OpDelete)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := p.fs.Stat(path); err != nil {
			res.fail(path, failure.PathNotFound, "File not found: "+path)
			p.logFailure(res, path)
			continue
		}
		if err := p.trasher.Trash(path); err != nil {
			res.fail(path, failure.FromText(err), err.Error())
			p.logFailure(res, path)
			continue
		}
		res.succeed()
	}

	p.finish(res, start, event.FilesDeleted)
	return res, nil
}

// Copy copies each source file into targetFolder, keeping its base name.
// The target must be an existing directory; otherwise no item is attempted.
// Existing destinations are never overwritten.
func (p *Processor) Copy(ctx context.Context, sources []string, targetFolder string) (*Result, error) {
	start := time.Now()
	if err := p.checkTarget(targetFolder); err != nil {
		return nil, err
	}
	res := newResult(OpCopy)
	target := filepath.Clean(targetFolder)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := p.fs.Stat(src); err != nil {
			res.fail(src, failure.PathNotFound, "Source file not found: "+src)
			p.logFailure(res, src)
			continue
		}
		name := filepath.Base(src)
		if name == "." || name == ".." || name == string(filepath.Separator) {
			res.fail(src, failure.Unknown, "Could not determine file name")
			p.logFailure(res, src)
			continue
		}
		if filepath.Dir(filepath.Clean(src)) == target {
			res.fail(src, failure.SameFolder, "Source and target folder are the same")
			p.logFailure(res, src)
			continue
		}
		dest := filepath.Join(target, name)
		if _, err := p.fs.Stat(dest); err == nil {
			res.fail(src, failure.FileExists, "File already exists: "+dest)
			p.logFailure(res, src)
			continue
		}
		if err := p.copyFile(src, dest); err != nil {
			res.fail(src, failure.FromIOError(err), err.Error())
			p.logFailure(res, src)
			continue
		}
		res.succeed()
	}

	p.finish(res, start, event.FilesCopied)
	return res, nil
}

func (p *Processor) checkTarget(targetFolder string) error {
	if targetFolder == "" {
		return ErrEmptyTarget
	}
	info, err := p.fs.Stat(targetFolder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrTargetNotFound, targetFolder)
		}
		return fmt.Errorf("reading target folder %s: %w", targetFolder, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrTargetNotDirectory, targetFolder)
	}
	return nil
}

// copyFile copies a regular file, keeping its permission bits. The
// destination is created exclusively and removed again if the copy fails.
func (p *Processor) copyFile(src, dest string) (err error) {
	info, err := p.fs.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	in, err := p.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := p.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = p.fs.Remove(dest)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	return out.Close()
}

func newResult(op Operation) *Result {
	return &Result{Operation: op, FailedFiles: make([]failure.Entry, 0)}
}

func (p *Processor) logFailure(res *Result, path string) {
	f := res.FailedFiles[len(res.FailedFiles)-1]
	p.logger.Warn("batch item failed",
		slog.String("operation", string(res.Operation)),
		slog.String("path", path),
		slog.String("reason", string(f.Reason)),
		slog.String("error", f.ErrorMessage),
	)
}

func (p *Processor) finish(res *Result, start time.Time, t event.Type) {
	res.DurationMS = time.Since(start).Milliseconds()
	p.logger.Info("batch finished",
		slog.String("operation", string(res.Operation)),
		slog.Int("succeeded", res.SuccessCount),
		slog.Int("failed", res.FailedCount),
		slog.Int64("duration_ms", res.DurationMS),
	)
	if p.eventBus == nil {
		return
	}
	p.eventBus.Publish(event.Event{
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"operation":    string(res.Operation),
			"successCount": res.SuccessCount,
			"failedCount":  res.FailedCount,
			"durationMs":   res.DurationMS,
		},
	})
}
