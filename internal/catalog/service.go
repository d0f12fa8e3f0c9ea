// Package catalog keeps a history of completed scans and batch operations.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sydlexius/filescan/internal/failure"
	"github.com/sydlexius/filescan/internal/fileops"
	"github.com/sydlexius/filescan/internal/scanner"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// DefaultLimit caps list queries that do not set their own limit.
const DefaultLimit = 50

// Service provides history data operations.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService creates a catalog service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// RecordScan stores the summary of a finished scan. The scan's own id is
// kept when present.
func (s *Service) RecordScan(ctx context.Context, r *scanner.ScanResult) (*ScanRecord, error) {
	rec := &ScanRecord{
		ID:           r.ID,
		RootPath:     r.RootPath,
		TotalFiles:   r.Stats.TotalFiles,
		TotalFolders: r.Stats.TotalFolders,
		TotalSize:    r.Stats.TotalSize,
		FailedCount:  len(r.FailedEntries),
		DurationMS:   r.DurationMS,
		CompletedAt:  r.CompletedAt.UTC(),
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, root_path, total_files, total_folders, total_size, failed_count, duration_ms, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.RootPath, rec.TotalFiles, rec.TotalFolders, rec.TotalSize,
		rec.FailedCount, rec.DurationMS, formatTime(rec.CompletedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("recording scan: %w", err)
	}
	return rec, nil
}

// ListScans returns recorded scans, newest first.
func (s *Service) ListScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, root_path, total_files, total_folders, total_size, failed_count, duration_ms, completed_at
		FROM scans ORDER BY completed_at DESC, rowid DESC LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	records := make([]ScanRecord, 0)
	for rows.Next() {
		var rec ScanRecord
		var completed string
		if err := rows.Scan(&rec.ID, &rec.RootPath, &rec.TotalFiles, &rec.TotalFolders,
			&rec.TotalSize, &rec.FailedCount, &rec.DurationMS, &completed); err != nil {
			return nil, fmt.Errorf("scanning scan row: %w", err)
		}
		rec.CompletedAt = parseTime(completed)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordOperation stores a batch summary and its failed items. target is
// the copy destination and empty for deletes.
func (s *Service) RecordOperation(ctx context.Context, r *fileops.Result, target string) (*OperationRecord, error) {
	rec := &OperationRecord{
		ID:           uuid.New().String(),
		Operation:    string(r.Operation),
		Target:       target,
		SuccessCount: r.SuccessCount,
		FailedCount:  r.FailedCount,
		DurationMS:   r.DurationMS,
		CreatedAt:    s.now().UTC(),
		Failures:     append([]failure.Entry{}, r.FailedFiles...),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO operations (id, operation, target, success_count, failed_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Operation, rec.Target, rec.SuccessCount, rec.FailedCount, rec.DurationMS, formatTime(rec.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("recording operation: %w", err)
	}

	for i, f := range rec.Failures {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO operation_failures (operation_id, position, path, reason, error_message)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, i, f.Path, string(f.Reason), f.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("recording operation failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing operation: %w", err)
	}
	return rec, nil
}

// GetOperation retrieves one batch with its failures.
func (s *Service) GetOperation(ctx context.Context, id string) (*OperationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, operation, target, success_count, failed_count, duration_ms, created_at
		FROM operations WHERE id = ?
	`, id)
	rec, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: operation %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting operation: %w", err)
	}
	if rec.Failures, err = s.failures(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListOperations returns recorded batches with their failures, newest first.
func (s *Service) ListOperations(ctx context.Context, limit int) ([]OperationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation, target, success_count, failed_count, duration_ms, created_at
		FROM operations ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	records := make([]OperationRecord, 0)
	for rows.Next() {
		rec, err := scanOperation(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning operation row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Release the single connection before loading failures.
	_ = rows.Close()

	for i := range records {
		if records[i].Failures, err = s.failures(ctx, records[i].ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Service) failures(ctx context.Context, operationID string) ([]failure.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, reason, error_message FROM operation_failures
		WHERE operation_id = ? ORDER BY position
	`, operationID)
	if err != nil {
		return nil, fmt.Errorf("listing operation failures: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]failure.Entry, 0)
	for rows.Next() {
		var f failure.Entry
		var reason string
		if err := rows.Scan(&f.Path, &reason, &f.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning failure row: %w", err)
		}
		f.Reason = failure.Reason(reason)
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (*OperationRecord, error) {
	var rec OperationRecord
	var created string
	if err := row.Scan(&rec.ID, &rec.Operation, &rec.Target, &rec.SuccessCount,
		&rec.FailedCount, &rec.DurationMS, &created); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTime(created)
	return &rec, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
