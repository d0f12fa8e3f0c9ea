package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sydlexius/filescan/internal/database"
	"github.com/sydlexius/filescan/internal/failure"
	"github.com/sydlexius/filescan/internal/fileops"
	"github.com/sydlexius/filescan/internal/scanner"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db)
}

func TestRecordAndListScans(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, root := range []string{"/a", "/b", "/c"} {
		_, err := svc.RecordScan(ctx, &scanner.ScanResult{
			ID:            root,
			RootPath:      root,
			Stats:         scanner.ScanStats{TotalFiles: int64(i + 1), TotalFolders: 1, TotalSize: 100},
			FailedEntries: []failure.Entry{failure.New(root+"/x", failure.PermissionDenied, "denied")},
			CompletedAt:   base.Add(time.Duration(i) * time.Minute),
			DurationMS:    12,
		})
		if err != nil {
			t.Fatalf("RecordScan(%s): %v", root, err)
		}
	}

	scans, err := svc.ListScans(ctx, 2)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("got %d scans, want 2", len(scans))
	}
	if scans[0].RootPath != "/c" || scans[1].RootPath != "/b" {
		t.Errorf("order = %s, %s; want newest first", scans[0].RootPath, scans[1].RootPath)
	}
	if scans[0].TotalFiles != 3 || scans[0].FailedCount != 1 {
		t.Errorf("record = %+v", scans[0])
	}
	if !scans[0].CompletedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CompletedAt = %v", scans[0].CompletedAt)
	}
}

func TestRecordScan_GeneratesID(t *testing.T) {
	svc := setupService(t)
	rec, err := svc.RecordScan(context.Background(), &scanner.ScanResult{RootPath: "/x"})
	if err != nil {
		t.Fatalf("RecordScan: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected generated id")
	}
	if rec.CompletedAt.IsZero() {
		t.Error("expected completion time to default to now")
	}
}

func TestRecordAndGetOperation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	result := &fileops.Result{
		Operation:    fileops.OpCopy,
		SuccessCount: 2,
		FailedCount:  2,
		FailedFiles: []failure.Entry{
			failure.New("/s/a", failure.FileExists, "File already exists: /t/a"),
			failure.New("/t/b", failure.SameFolder, "Source and target folder are the same"),
		},
		DurationMS: 5,
	}
	rec, err := svc.RecordOperation(ctx, result, "/t")
	if err != nil {
		t.Fatalf("RecordOperation: %v", err)
	}

	got, err := svc.GetOperation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetOperation: %v", err)
	}
	if got.Operation != "copy" || got.Target != "/t" || got.SuccessCount != 2 || got.FailedCount != 2 {
		t.Errorf("operation = %+v", got)
	}
	if len(got.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(got.Failures))
	}
	if got.Failures[0].Reason != failure.FileExists || got.Failures[1].Reason != failure.SameFolder {
		t.Errorf("failure order = %+v", got.Failures)
	}
}

func TestGetOperation_NotFound(t *testing.T) {
	svc := setupService(t)
	_, err := svc.GetOperation(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListOperations(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	tick := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	if _, err := svc.RecordOperation(ctx, &fileops.Result{Operation: fileops.OpDelete, SuccessCount: 1}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordOperation(ctx, &fileops.Result{
		Operation:   fileops.OpDelete,
		FailedCount: 1,
		FailedFiles: []failure.Entry{failure.New("/gone", failure.PathNotFound, "File not found: /gone")},
	}, ""); err != nil {
		t.Fatal(err)
	}

	ops, err := svc.ListOperations(ctx, 0)
	if err != nil {
		t.Fatalf("ListOperations: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2", len(ops))
	}
	if ops[0].FailedCount != 1 || len(ops[0].Failures) != 1 {
		t.Errorf("newest = %+v, want the failed delete", ops[0])
	}
	if ops[1].Failures == nil || len(ops[1].Failures) != 0 {
		t.Errorf("oldest failures = %v, want empty list", ops[1].Failures)
	}
}
