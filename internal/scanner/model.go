package scanner

import (
	"time"

	"github.com/sydlexius/filescan/internal/failure"
)

// Category is a coarse file type classification.
type Category string

// Known categories.
const (
	CategoryDocument Category = "document"
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryFolder   Category = "folder"
	CategoryOther    Category = "other"
)

// Entry is one file or folder discovered during a scan.
type Entry struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	IsDirectory bool      `json:"isDirectory"`
	Size        int64     `json:"size"` // 0 for directories
	ModifiedAt  time.Time `json:"modifiedAt"`
	Category    Category  `json:"category"`
	Extension   string    `json:"extension"` // lowercase, no dot, empty for directories
	Depth       int       `json:"depth"`     // path components below the scan root
	ParentPath  string    `json:"parentPath"`
}

// ScanStats accumulates counts over the entries of one scan.
type ScanStats struct {
	TotalFiles    int64 `json:"totalFiles"`
	TotalFolders  int64 `json:"totalFolders"`
	TotalSize     int64 `json:"totalSize"`
	DocumentCount int64 `json:"documentCount"`
	ImageCount    int64 `json:"imageCount"`
	VideoCount    int64 `json:"videoCount"`
	AudioCount    int64 `json:"audioCount"`
	OtherCount    int64 `json:"otherCount"`
}

// ScanResult is the terminal output of one scan.
type ScanResult struct {
	ID            string          `json:"id"`
	RootPath      string          `json:"rootPath"`
	Entries       []Entry         `json:"entries"`
	Stats         ScanStats       `json:"stats"`
	FailedEntries []failure.Entry `json:"failedEntries"`
	CompletedAt   time.Time       `json:"completedAt"`
	DurationMS    int64           `json:"durationMs"`
}

// ScanStatus describes where a scan is in its lifecycle.
type ScanStatus string

// Scan statuses.
const (
	StatusIdle      ScanStatus = "idle"
	StatusScanning  ScanStatus = "scanning"
	StatusCompleted ScanStatus = "completed"
	StatusError     ScanStatus = "error"
)

// CompletedPath is the CurrentPath of the final progress notification.
const CompletedPath = "Completed"

// ScanProgress is a transient progress notification.
type ScanProgress struct {
	ScannedCount      int64    `json:"scannedCount"`
	CurrentPath       string   `json:"currentPath"`
	EstimatedProgress *float64 `json:"estimatedProgress"`
}

// NewProgress creates a notification without a percentage estimate.
func NewProgress(scanned int64, currentPath string) ScanProgress {
	return ScanProgress{ScannedCount: scanned, CurrentPath: currentPath}
}

// WithProgress returns a copy of p carrying the given percentage, clamped to 0-100.
func (p ScanProgress) WithProgress(pct float64) ScanProgress {
	pct = min(max(pct, 0), 100)
	p.EstimatedProgress = &pct
	return p
}

// ProgressFunc receives progress notifications. It is called synchronously
// from the walk and must return quickly. Returned errors are ignored.
type ProgressFunc func(ScanProgress) error

// ScanOptions controls a walk.
type ScanOptions struct {
	// MaxDepth bounds the walk, counting the root as depth 0. Zero means unlimited.
	MaxDepth int
	// FollowSymlinks descends into symlinked directories and reports target metadata.
	FollowSymlinks bool
	// ProgressInterval is the minimum gap between progress notifications.
	// Zero uses DefaultProgressInterval.
	ProgressInterval time.Duration
	// ID names the scan in published events and in the result. Empty
	// generates a random UUID.
	ID string
}

// DefaultProgressInterval guarantees at least 10 notifications per second on a long walk.
const DefaultProgressInterval = 100 * time.Millisecond

// WithMaxDepth returns a copy of o with the depth bound set.
func (o ScanOptions) WithMaxDepth(depth int) ScanOptions {
	o.MaxDepth = depth
	return o
}

// WithFollowSymlinks returns a copy of o with symlink following set.
func (o ScanOptions) WithFollowSymlinks(follow bool) ScanOptions {
	o.FollowSymlinks = follow
	return o
}

// WithID returns a copy of o that names the scan id.
func (o ScanOptions) WithID(id string) ScanOptions {
	o.ID = id
	return o
}

func (o ScanOptions) interval() time.Duration {
	if o.ProgressInterval <= 0 {
		return DefaultProgressInterval
	}
	return o.ProgressInterval
}
