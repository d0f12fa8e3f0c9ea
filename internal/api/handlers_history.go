package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sydlexius/filescan/internal/catalog"
)

// handleListScans returns recorded scans, newest first.
// GET /api/v1/history/scans?limit=N
func (r *Router) handleListScans(w http.ResponseWriter, req *http.Request) {
	if r.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "history not configured")
		return
	}
	limit, ok := parseLimit(w, req)
	if !ok {
		return
	}
	scans, err := r.catalog.ListScans(req.Context(), limit)
	if err != nil {
		r.logger.Error("listing scans", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list scans")
		return
	}
	writeJSON(w, http.StatusOK, scans)
}

// handleListOperations returns recorded batch operations, newest first.
// GET /api/v1/history/operations?limit=N
func (r *Router) handleListOperations(w http.ResponseWriter, req *http.Request) {
	if r.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "history not configured")
		return
	}
	limit, ok := parseLimit(w, req)
	if !ok {
		return
	}
	ops, err := r.catalog.ListOperations(req.Context(), limit)
	if err != nil {
		r.logger.Error("listing operations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list operations")
		return
	}
	writeJSON(w, http.StatusOK, ops)
}

// handleGetOperation returns one batch operation with its failures.
// GET /api/v1/history/operations/{id}
func (r *Router) handleGetOperation(w http.ResponseWriter, req *http.Request) {
	if r.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "history not configured")
		return
	}
	op, err := r.catalog.GetOperation(req.Context(), req.PathValue("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "operation not found")
		return
	}
	if err != nil {
		r.logger.Error("getting operation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get operation")
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func parseLimit(w http.ResponseWriter, req *http.Request) (int, bool) {
	raw := req.URL.Query().Get("limit")
	if raw == "" {
		return catalog.DefaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 1000 {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
		return 0, false
	}
	return n, true
}
