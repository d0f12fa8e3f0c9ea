package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sydlexius/filescan/internal/failure"
	"github.com/sydlexius/filescan/internal/fileops"
	"github.com/sydlexius/filescan/internal/scanner"
)

// writeConfig writes a config with a private trash and history database.
func writeConfig(t *testing.T) (cfgPath, trashDir string) {
	t.Helper()
	dir := t.TempDir()
	trashDir = filepath.Join(dir, "trash")
	cfgPath = filepath.Join(dir, "filescan.yaml")
	body := "trash:\n  dir: " + trashDir + "\n" +
		"catalog:\n  path: " + filepath.Join(dir, "history.db") + "\n" +
		"logging:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return cfgPath, trashDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&app{})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScanCommand_JSON(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.txt", "sub/b.png"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	outFile := filepath.Join(t.TempDir(), "report", "scan.json")
	out, err := run(t, "--config", cfgPath, "scan", root, "--json", "--output", outFile)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	var res scanner.ScanResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decoding stdout: %v\n%s", err, out)
	}
	if res.Stats.TotalFiles != 2 || res.Stats.TotalFolders != 1 {
		t.Errorf("stats = %+v, want 2 files and 1 folder", res.Stats)
	}
	if res.Stats.DocumentCount != 1 || res.Stats.ImageCount != 1 {
		t.Errorf("category counts = %+v", res.Stats)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("reading --output file: %v", err)
	}
	var saved scanner.ScanResult
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("decoding --output file: %v", err)
	}
	if saved.ID != res.ID {
		t.Errorf("saved ID = %q, want %q", saved.ID, res.ID)
	}
}

func TestScanCommand_MaxDepthFlag(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgPath, "scan", root, "--json", "--max-depth", "1")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var res scanner.ScanResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Name != "a" {
		t.Errorf("entries = %+v, want only a", res.Entries)
	}
}

func TestScanCommand_Rejections(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	file := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "--config", cfgPath, "scan", file); err == nil {
		t.Error("expected error scanning a file")
	}
	if _, err := run(t, "--config", cfgPath, "scan", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error scanning a missing path")
	}
	if _, err := run(t, "--config", cfgPath, "scan", t.TempDir(), "--max-depth", "-1"); err == nil {
		t.Error("expected error for negative --max-depth")
	}
}

func TestDeleteCommand_PartialFailure(t *testing.T) {
	cfgPath, trashDir := writeConfig(t)
	dir := t.TempDir()
	present := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.txt")

	out, err := run(t, "--config", cfgPath, "delete", "--json", present, missing)
	if err == nil {
		t.Fatal("expected non-nil error when an item fails")
	}

	var res fileops.Result
	if jerr := json.Unmarshal([]byte(out), &res); jerr != nil {
		t.Fatalf("decoding: %v\n%s", jerr, out)
	}
	if res.SuccessCount != 1 || res.FailedCount != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.FailedFiles[0].Reason != failure.PathNotFound {
		t.Errorf("reason = %q, want %q", res.FailedFiles[0].Reason, failure.PathNotFound)
	}
	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Errorf("present.txt still exists: %v", err)
	}
	if _, err := os.Stat(filepath.Join(trashDir, "files", "present.txt")); err != nil {
		t.Errorf("present.txt not in trash: %v", err)
	}
}

func TestCopyCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	src := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(src, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := t.TempDir()

	out, err := run(t, "--config", cfgPath, "copy", "--to", target, src)
	if err != nil {
		t.Fatalf("copy: %v\n%s", err, out)
	}
	if !strings.Contains(out, "copy: 1 succeeded, 0 failed") {
		t.Errorf("summary = %q", out)
	}
	if _, err := os.Stat(filepath.Join(target, "report.pdf")); err != nil {
		t.Errorf("copy missing: %v", err)
	}

	// A second copy collides with the first.
	if _, err := run(t, "--config", cfgPath, "copy", "--to", target, src); err == nil {
		t.Error("expected error when the destination exists")
	}
}

func TestCopyCommand_RequiresTarget(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	if _, err := run(t, "--config", cfgPath, "copy", "x"); err == nil {
		t.Error("expected error without --to")
	}
}

func TestVersionCommand_IgnoresBrokenConfig(t *testing.T) {
	out, err := run(t, "--config", filepath.Join(t.TempDir(), "missing-dir", "nope.yaml"), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "filescan ") {
		t.Errorf("output = %q", out)
	}
}

func TestProgressLine(t *testing.T) {
	var buf bytes.Buffer
	l := &progressLine{w: &buf, width: 40}

	if err := l.Update(scanner.NewProgress(1234, "/very/long/path/that/will/not/fit/in/forty/columns.txt")); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "\r\x1b[K1,234 scanned  …") {
		t.Errorf("line = %q", got)
	}
	if !strings.HasSuffix(got, "columns.txt") {
		t.Errorf("line does not keep the path tail: %q", got)
	}

	buf.Reset()
	if err := l.Update(scanner.NewProgress(5, scanner.CompletedPath).WithProgress(100)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "5 scanned (100%)") {
		t.Errorf("line = %q", buf.String())
	}

	buf.Reset()
	l.Done()
	if buf.String() != "\r\x1b[K" {
		t.Errorf("Done wrote %q", buf.String())
	}
	buf.Reset()
	l.Done()
	if buf.Len() != 0 {
		t.Errorf("second Done wrote %q", buf.String())
	}
}

func TestShortenLeft(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 4, "…def"},
		{"/ä/ö/ü", 3, "…/ü"},
	}
	for _, tt := range tests {
		if got := shortenLeft(tt.in, tt.n); got != tt.want {
			t.Errorf("shortenLeft(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestWriteScanSummary(t *testing.T) {
	res := &scanner.ScanResult{
		RootPath:   "/data",
		DurationMS: 42,
		Stats: scanner.ScanStats{
			TotalFiles: 3, TotalFolders: 1, TotalSize: 2048,
			DocumentCount: 2, OtherCount: 1,
		},
		FailedEntries: []failure.Entry{failure.New("/data/locked", failure.PermissionDenied, "permission denied")},
	}
	var buf bytes.Buffer
	if err := writeScanSummary(&buf, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"/data", "42ms", "3 (2.0 kB)", "document", "Unreadable:", "/data/locked"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
