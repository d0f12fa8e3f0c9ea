package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sydlexius/filescan/internal/fileops"
)

type deleteRequest struct {
	Paths []string `json:"paths"`
}

type copyRequest struct {
	SourcePaths  []string `json:"sourcePaths"`
	TargetFolder string   `json:"targetFolder"`
}

// handleDelete moves the given paths to the trash.
// POST /api/v1/files/delete
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) {
	var body deleteRequest
	if err := decodeBody(w, req, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := r.processor.Delete(req.Context(), body.Paths)
	if err != nil {
		r.batchError(w, err)
		return
	}
	r.recordOperation(req.Context(), result, "")
	writeJSON(w, http.StatusOK, result)
}

// handleCopy copies the given files into a target folder.
// POST /api/v1/files/copy
func (r *Router) handleCopy(w http.ResponseWriter, req *http.Request) {
	var body copyRequest
	if err := decodeBody(w, req, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := r.processor.Copy(req.Context(), body.SourcePaths, body.TargetFolder)
	if err != nil {
		r.batchError(w, err)
		return
	}
	r.recordOperation(req.Context(), result, body.TargetFolder)
	writeJSON(w, http.StatusOK, result)
}

func (r *Router) batchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fileops.ErrEmptyTarget):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fileops.ErrTargetNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fileops.ErrTargetNotDirectory):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.Canceled):
	default:
		r.logger.Error("batch operation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "operation failed")
	}
}

func (r *Router) recordOperation(ctx context.Context, result *fileops.Result, target string) {
	if r.catalog == nil {
		return
	}
	if _, err := r.catalog.RecordOperation(ctx, result, target); err != nil {
		r.logger.Warn("recording operation history",
			slog.String("operation", string(result.Operation)),
			slog.String("error", err.Error()),
		)
	}
}
