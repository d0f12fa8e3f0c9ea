package filesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonical_ResolvesSymlinks(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	realDir := filepath.Join(dir, "realDir")
	if err := os.Mkdir(realDir, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	got, err := Canonical(link)
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if got != realDir {
		t.Errorf("Canonical = %q, want %q", got, realDir)
	}
}

func TestCanonical_CleansDotDot(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Canonical(dir + string(filepath.Separator) + "sub" + string(filepath.Separator) + "..")
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if got != dir {
		t.Errorf("Canonical = %q, want %q", got, dir)
	}
}

func TestCanonical_Missing(t *testing.T) {
	if _, err := Canonical(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing path")
	}
}
