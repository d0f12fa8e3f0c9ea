package catalog

import (
	"time"

	"github.com/sydlexius/filescan/internal/failure"
)

// ScanRecord summarizes one completed scan.
type ScanRecord struct {
	ID           string    `json:"id"`
	RootPath     string    `json:"rootPath"`
	TotalFiles   int64     `json:"totalFiles"`
	TotalFolders int64     `json:"totalFolders"`
	TotalSize    int64     `json:"totalSize"`
	FailedCount  int       `json:"failedCount"`
	DurationMS   int64     `json:"durationMs"`
	CompletedAt  time.Time `json:"completedAt"`
}

// OperationRecord summarizes one delete or copy batch.
type OperationRecord struct {
	ID           string          `json:"id"`
	Operation    string          `json:"operation"`
	Target       string          `json:"target,omitempty"`
	SuccessCount int             `json:"successCount"`
	FailedCount  int             `json:"failedCount"`
	DurationMS   int64           `json:"durationMs"`
	CreatedAt    time.Time       `json:"createdAt"`
	Failures     []failure.Entry `json:"failures"`
}

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
