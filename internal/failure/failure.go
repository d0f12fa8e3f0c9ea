// Package failure classifies per-item errors from scans and batch file
// operations into a closed set of reasons.
package failure

import (
	"errors"
	"io/fs"
	"strings"
)

// Reason is why a single file or folder could not be processed.
type Reason string

// Known reasons. Unknown is the catch-all and is always valid.
const (
	PermissionDenied Reason = "permission_denied"
	FileLocked       Reason = "file_locked"
	PathNotFound     Reason = "path_not_found"
	TargetNotFound   Reason = "target_not_found"
	FileExists       Reason = "file_exists"
	SameFolder       Reason = "same_folder"
	Unknown          Reason = "unknown"
)

// Entry records one item that failed. Entries are never retried.
type Entry struct {
	Path         string `json:"path"`
	Reason       Reason `json:"reason"`
	ErrorMessage string `json:"errorMessage"`
}

// New builds an Entry.
func New(path string, reason Reason, msg string) Entry {
	return Entry{Path: path, Reason: reason, ErrorMessage: msg}
}

// Valid reports whether r is one of the known reasons.
func (r Reason) Valid() bool {
	switch r {
	case PermissionDenied, FileLocked, PathNotFound, TargetNotFound, FileExists, SameFolder, Unknown:
		return true
	}
	return false
}

// FromIOError classifies an error returned by a file read or write.
// Structured error kinds are checked before the message text.
func FromIOError(err error) Reason {
	switch {
	case err == nil:
		return Unknown
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return PathNotFound
	case errors.Is(err, fs.ErrExist):
		return FileExists
	case isLockedText(err.Error()):
		return FileLocked
	}
	return Unknown
}

// FromText classifies an error from an opaque facility (such as the trash)
// whose only reliable signal is its message.
func FromText(err error) Reason {
	if err == nil {
		return Unknown
	}
	if errors.Is(err, fs.ErrPermission) {
		return PermissionDenied
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied"):
		return PermissionDenied
	case isLockedText(msg):
		return FileLocked
	}
	return Unknown
}

// FromWalkError classifies an error hit while visiting a node in a walk.
func FromWalkError(err error) Reason {
	if errors.Is(err, fs.ErrPermission) {
		return PermissionDenied
	}
	return Unknown
}

func isLockedText(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "locked") || strings.Contains(msg, "in use")
}
