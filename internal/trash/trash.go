// Package trash moves files into a freedesktop.org style trash directory so
// they can be restored by the desktop's file manager.
package trash

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sydlexius/filescan/internal/filesystem"
)

// Trasher moves a path to a recoverable location.
type Trasher interface {
	Trash(path string) error
}

// maxNameAttempts bounds the search for a free name inside the trash.
const maxNameAttempts = 10000

// Dir is a trash directory laid out as <root>/files and <root>/info.
type Dir struct {
	root string
	now  func() time.Time
}

// New returns a trash rooted at root. The directory is created on first use.
func New(root string) *Dir {
	return &Dir{root: root, now: time.Now}
}

// DefaultRoot returns $XDG_DATA_HOME/Trash, falling back to ~/.local/share/Trash.
func DefaultRoot() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// Root returns the trash directory.
func (d *Dir) Root() string { return d.root }

// Trash moves path into the trash and records its original location in a
// matching .trashinfo file. Name collisions inside the trash get a numeric
// suffix.
func (d *Dir) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}

	filesDir := filepath.Join(d.root, "files")
	infoDir := filepath.Join(d.root, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating trash directory: %w", err)
		}
	}

	name, infoPath, err := d.reserve(filesDir, infoDir, filepath.Base(abs))
	if err != nil {
		return err
	}

	if err := filesystem.WriteFileAtomic(infoPath, d.info(abs), 0o600); err != nil {
		_ = os.Remove(infoPath)
		return fmt.Errorf("writing trash info: %w", err)
	}
	if err := filesystem.Move(abs, filepath.Join(filesDir, name)); err != nil {
		_ = os.Remove(infoPath)
		return err
	}
	return nil
}

// reserve claims a free name by exclusively creating its .trashinfo file.
func (d *Dir) reserve(filesDir, infoDir, base string) (string, string, error) {
	for i := 1; i <= maxNameAttempts; i++ {
		name := base
		if i > 1 {
			name = base + "." + strconv.Itoa(i)
		}
		infoPath := filepath.Join(infoDir, name+".trashinfo")
		f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // G304: path is inside the trash root
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("reserving trash entry: %w", err)
		}
		_ = f.Close()

		if _, err := os.Lstat(filepath.Join(filesDir, name)); err == nil {
			// Orphaned payload without an info file; leave it alone.
			_ = os.Remove(infoPath)
			continue
		}
		return name, infoPath, nil
	}
	return "", "", fmt.Errorf("no free trash name for %s", base)
}

func (d *Dir) info(abs string) []byte {
	escaped := (&url.URL{Path: filepath.ToSlash(abs)}).EscapedPath()
	return fmt.Appendf(nil, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escaped, d.now().Format("2006-01-02T15:04:05"))
}
