package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/sydlexius/filescan/internal/fileops"
	"github.com/sydlexius/filescan/internal/scanner"
)

// progressLine redraws a single terminal line with scan progress.
type progressLine struct {
	w     io.Writer
	width int
	drawn bool
}

func newProgressLine(f *os.File) *progressLine {
	width := 80
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		width = w
	}
	return &progressLine{w: f, width: width}
}

// Update has the scanner.ProgressFunc signature.
func (l *progressLine) Update(p scanner.ScanProgress) error {
	text := humanize.Comma(p.ScannedCount) + " scanned"
	if p.EstimatedProgress != nil {
		text += fmt.Sprintf(" (%.0f%%)", *p.EstimatedProgress)
	}
	if room := l.width - utf8.RuneCountInString(text) - 3; room > 8 {
		text += "  " + shortenLeft(p.CurrentPath, room)
	}
	_, err := fmt.Fprintf(l.w, "\r\x1b[K%s", text)
	l.drawn = true
	return err
}

// Done ends the progress line so later output starts on a fresh line.
func (l *progressLine) Done() {
	if l.drawn {
		fmt.Fprint(l.w, "\r\x1b[K")
		l.drawn = false
	}
}

// shortenLeft keeps the tail of s, which is the informative end of a path.
func shortenLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}

var categoryOrder = []scanner.Category{
	scanner.CategoryDocument,
	scanner.CategoryImage,
	scanner.CategoryVideo,
	scanner.CategoryAudio,
	scanner.CategoryOther,
}

func writeScanSummary(w io.Writer, r *scanner.ScanResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Root:\t%s\n", r.RootPath)
	fmt.Fprintf(tw, "Duration:\t%s\n", (time.Duration(r.DurationMS) * time.Millisecond).String())
	fmt.Fprintf(tw, "Folders:\t%s\n", humanize.Comma(r.Stats.TotalFolders))
	fmt.Fprintf(tw, "Files:\t%s (%s)\n", humanize.Comma(r.Stats.TotalFiles), humanize.Bytes(uint64(r.Stats.TotalSize)))
	counts := r.Stats.CategoryCounts()
	for _, c := range categoryOrder {
		fmt.Fprintf(tw, "  %s\t%s\n", c, humanize.Comma(counts[c]))
	}
	if n := len(r.FailedEntries); n > 0 {
		fmt.Fprintf(tw, "Unreadable:\t%d\n", n)
		for _, f := range r.FailedEntries {
			fmt.Fprintf(tw, "  %s\t%s\n", f.Path, f.ErrorMessage)
		}
	}
	return tw.Flush()
}

func writeBatchSummary(w io.Writer, r *fileops.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s: %d succeeded, %d failed in %dms\n", r.Operation, r.SuccessCount, r.FailedCount, r.DurationMS)
	for _, f := range r.FailedFiles {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Path, f.Reason, f.ErrorMessage)
	}
	return tw.Flush()
}
