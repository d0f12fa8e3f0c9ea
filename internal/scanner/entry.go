package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// StatFunc reads metadata for a path; os.Stat follows symlinks, os.Lstat does not.
type StatFunc func(path string) (fs.FileInfo, error)

// BuildEntry reads the metadata of path and produces its Entry. root must be
// the canonical scan root; depth and parent are derived from it. Only a
// metadata read failure is an error.
func BuildEntry(path, root string, stat StatFunc) (Entry, error) {
	info, err := stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("reading metadata for %s: %w", path, err)
	}
	return entryFromInfo(path, root, info), nil
}

func entryFromInfo(path, root string, info fs.FileInfo) Entry {
	name := filepath.Base(path)
	e := Entry{
		Path:        path,
		Name:        name,
		IsDirectory: info.IsDir(),
		ModifiedAt:  modTime(info),
		Depth:       depthBelow(root, path),
		ParentPath:  filepath.Dir(path),
	}
	if e.IsDirectory {
		e.Category = CategoryFolder
		return e
	}
	e.Size = info.Size()
	e.Extension = Extension(name)
	e.Category = Classify(e.Extension)
	return e
}

// modTime falls back to the current time so the field is always populated.
func modTime(info fs.FileInfo) time.Time {
	mt := info.ModTime()
	if mt.IsZero() {
		return time.Now().UTC()
	}
	return mt.UTC()
}

// depthBelow counts the path components of path under root, or 0 when path
// is not inside root.
func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}
