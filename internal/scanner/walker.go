package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/sydlexius/filescan/internal/failure"
)

// errLoop marks a symlinked directory that resolves to one of its ancestors.
var errLoop = errors.New("filesystem loop detected")

// walker performs one depth-first traversal. It is not safe for concurrent use.
type walker struct {
	root     string
	opts     ScanOptions
	observer ProgressFunc
	logger   *slog.Logger
	now      func() time.Time
	limiter  *rate.Limiter

	entries []Entry
	failed  []failure.Entry
	stats   ScanStats

	// ancestors holds the resolved directories on the current descent path.
	// Only populated when following symlinks.
	ancestors map[string]bool
}

func newWalker(root string, opts ScanOptions, observer ProgressFunc, logger *slog.Logger, now func() time.Time) *walker {
	return &walker{
		root:      root,
		opts:      opts,
		observer:  observer,
		logger:    logger,
		now:       now,
		limiter:   rate.NewLimiter(rate.Every(opts.interval()), 1),
		entries:   make([]Entry, 0),
		failed:    make([]failure.Entry, 0),
		ancestors: make(map[string]bool),
	}
}

// walk visits every descendant of the root. The root itself is not recorded.
// Only context cancellation stops the walk early; every other problem becomes
// a failed entry.
func (w *walker) walk(ctx context.Context) error {
	// Spend the initial token so the first notification waits a full interval.
	w.limiter.AllowN(w.now(), 1)
	if w.opts.FollowSymlinks {
		w.ancestors[w.root] = true
	}
	return w.walkDir(ctx, w.root, 0)
}

func (w *walker) walkDir(ctx context.Context, dir string, depth int) error {
	children, err := os.ReadDir(dir)
	if err != nil {
		w.fail(dir, err)
		return nil
	}

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, child.Name())
		w.maybeNotify(path)

		entry, err := BuildEntry(path, w.root, w.stat)
		if err != nil {
			w.fail(path, err)
			continue
		}

		descend := entry.IsDirectory && (w.opts.MaxDepth <= 0 || depth+1 < w.opts.MaxDepth)
		var resolved string
		if entry.IsDirectory && w.opts.FollowSymlinks {
			resolved, err = filepath.EvalSymlinks(path)
			if err != nil {
				w.fail(path, err)
				continue
			}
			if w.ancestors[resolved] {
				w.fail(path, fmt.Errorf("%s: %w", path, errLoop))
				continue
			}
		}

		w.record(entry)
		if !descend {
			continue
		}

		if resolved != "" {
			w.ancestors[resolved] = true
		}
		err = w.walkDir(ctx, path, depth+1)
		if resolved != "" {
			delete(w.ancestors, resolved)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) stat(path string) (fs.FileInfo, error) {
	if w.opts.FollowSymlinks {
		return os.Stat(path)
	}
	return os.Lstat(path)
}

func (w *walker) record(e Entry) {
	w.entries = append(w.entries, e)
	w.stats.Add(e)
}

func (w *walker) fail(path string, err error) {
	w.logger.Debug("walk error", slog.String("path", path), slog.String("error", err.Error()))
	w.failed = append(w.failed, failure.New(path, failure.FromWalkError(err), err.Error()))
}

// maybeNotify reports the node about to be processed when at least one
// interval has passed since the previous notification.
func (w *walker) maybeNotify(path string) {
	if w.observer == nil || !w.limiter.AllowN(w.now(), 1) {
		return
	}
	notify(w.observer, NewProgress(int64(len(w.entries)), path), w.logger)
}

// notify delivers p to observer, swallowing errors and panics so a faulty
// observer cannot affect the scan.
func notify(observer ProgressFunc, p ScanProgress, logger *slog.Logger) {
	if observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in progress observer", slog.Any("panic", r))
		}
	}()
	if err := observer(p); err != nil {
		logger.Debug("progress observer failed", slog.String("error", err.Error()))
	}
}
