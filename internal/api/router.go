package api

import (
	"log/slog"
	"net/http"

	"github.com/sydlexius/filescan/internal/api/middleware"
	"github.com/sydlexius/filescan/internal/catalog"
	"github.com/sydlexius/filescan/internal/event"
	"github.com/sydlexius/filescan/internal/fileops"
	"github.com/sydlexius/filescan/internal/scanner"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	ScannerService *scanner.Service
	Processor      *fileops.Processor
	Catalog        *catalog.Service // nil disables the history routes
	EventBus       *event.Bus
	ScanDefaults   scanner.ScanOptions
	// MutationLimiter throttles the delete and copy routes; nil disables it.
	MutationLimiter *middleware.RateLimiter
	Logger          *slog.Logger
	BasePath        string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	scannerService  *scanner.Service
	processor       *fileops.Processor
	catalog         *catalog.Service
	eventBus        *event.Bus
	scanDefaults    scanner.ScanOptions
	mutationLimiter *middleware.RateLimiter
	logger          *slog.Logger
	basePath        string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		scannerService:  deps.ScannerService,
		processor:       deps.Processor,
		catalog:         deps.Catalog,
		eventBus:        deps.EventBus,
		scanDefaults:    deps.ScanDefaults,
		mutationLimiter: deps.MutationLimiter,
		logger:          deps.Logger.With(slog.String("component", "api")),
		basePath:        deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	bp := r.basePath

	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)

	// Scanning
	mux.HandleFunc("POST "+bp+"/api/v1/scan", r.handleScan)
	mux.HandleFunc("GET "+bp+"/api/v1/scan/status", r.handleScanStatus)
	mux.HandleFunc("GET "+bp+"/api/v1/events", r.handleEvents)

	// Batch file operations
	mux.HandleFunc("POST "+bp+"/api/v1/files/delete", r.limitMutation(r.handleDelete))
	mux.HandleFunc("POST "+bp+"/api/v1/files/copy", r.limitMutation(r.handleCopy))

	// History
	mux.HandleFunc("GET "+bp+"/api/v1/history/scans", r.handleListScans)
	mux.HandleFunc("GET "+bp+"/api/v1/history/operations", r.handleListOperations)
	mux.HandleFunc("GET "+bp+"/api/v1/history/operations/{id}", r.handleGetOperation)

	return middleware.Logging(r.logger)(middleware.SecurityHeaders(mux))
}

func (r *Router) limitMutation(fn http.HandlerFunc) http.HandlerFunc {
	if r.mutationLimiter == nil {
		return fn
	}
	return r.mutationLimiter.Wrap(fn)
}
