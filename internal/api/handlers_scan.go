package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/sydlexius/filescan/internal/scanner"
)

type scanRequest struct {
	Path           string `json:"path"`
	MaxDepth       *int   `json:"maxDepth,omitempty"`
	FollowSymlinks *bool  `json:"followSymlinks,omitempty"`
	// ScanID lets a client that is already listening on the event stream
	// match scan events to this request before the response arrives.
	ScanID string `json:"scanId,omitempty"`
}

// handleScan runs a scan to completion and returns its result. Progress is
// published on the event stream while it runs, tagged with the scan id. The
// X-Scan-ID header only arrives with the finished result, so clients that
// follow progress live supply their own UUID as scanId.
// POST /api/v1/scan
func (r *Router) handleScan(w http.ResponseWriter, req *http.Request) {
	var body scanRequest
	if err := decodeBody(w, req, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	opts := r.scanDefaults
	if body.MaxDepth != nil {
		if *body.MaxDepth < 0 {
			writeError(w, http.StatusBadRequest, "maxDepth cannot be negative")
			return
		}
		opts = opts.WithMaxDepth(*body.MaxDepth)
	}
	if body.ScanID != "" {
		id, err := uuid.Parse(body.ScanID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "scanId must be a UUID")
			return
		}
		opts = opts.WithID(id.String())
	}
	if body.FollowSymlinks != nil {
		opts = opts.WithFollowSymlinks(*body.FollowSymlinks)
	}

	result, err := r.scannerService.Scan(req.Context(), body.Path, opts, nil)
	switch {
	case err == nil:
	case errors.Is(err, scanner.ErrEmptyPath):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, scanner.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, scanner.ErrNotDirectory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is left to answer.
		return
	default:
		r.logger.Error("scan failed", slog.String("path", body.Path), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	if r.catalog != nil {
		if _, err := r.catalog.RecordScan(req.Context(), result); err != nil {
			r.logger.Warn("recording scan history", slog.String("scan_id", result.ID), slog.String("error", err.Error()))
		}
	}

	w.Header().Set("X-Scan-ID", result.ID)
	writeJSON(w, http.StatusOK, result)
}

// handleScanStatus reports the state of the most recent scan.
// GET /api/v1/scan/status
func (r *Router) handleScanStatus(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": string(r.scannerService.Status())})
}
