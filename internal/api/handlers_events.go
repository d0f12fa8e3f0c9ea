package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sydlexius/filescan/internal/event"
)

const (
	sseBuffer    = 64
	sseHeartbeat = 15 * time.Second
)

// handleEvents streams bus events as Server-Sent Events until the client
// disconnects. Slow clients miss events rather than stalling the bus.
// GET /api/v1/events
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) {
	if r.eventBus == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream not configured")
		return
	}

	events := make(chan event.Event, sseBuffer)
	unsubscribe := r.eventBus.Subscribe(event.All, func(e event.Event) {
		select {
		case events <- e:
		default:
		}
	})
	defer unsubscribe()

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		r.logger.Warn("event stream cannot flush", slog.String("error", err.Error()))
		return
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-req.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case e := <-events:
			if err := writeSSE(w, e); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// writeSSE writes one event frame. "scan.progress" becomes "scan_progress".
func writeSSE(w http.ResponseWriter, e event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	name := strings.ReplaceAll(string(e.Type), ".", "_")
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
