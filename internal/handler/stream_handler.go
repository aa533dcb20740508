package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"codevid/internal/model"
	"codevid/internal/stream"
)

// StreamHandler serves live job progress over Server-Sent Events.
type StreamHandler struct {
	store     *model.JobStore
	hub       *stream.Hub
	keepalive time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(store *model.JobStore, hub *stream.Hub, keepalive time.Duration) *StreamHandler {
	return &StreamHandler{
		store:     store,
		hub:       hub,
		keepalive: keepalive,
	}
}

// Stream handles GET /api/jobs/{id}/stream. Reconnecting clients
// resume from the Last-Event-ID header, or the lastEventId query
// parameter when the header is absent.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, ok := h.store.Get(id); !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	lastEventID := r.Header.Get("Last-Event-ID")
	if lastEventID == "" {
		lastEventID = r.URL.Query().Get("lastEventId")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sub := h.hub.Subscribe(id, lastEventID)
	defer sub.Close()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case ev := <-sub.Events():
			writeSSE(w, ev)
			flusher.Flush()
			if sub.Done() {
				return
			}
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
			if sub.Done() {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// writeSSE frames one event. Multi-line payloads become one data
// field per line so the frame stays valid.
func writeSSE(w http.ResponseWriter, ev stream.Event) {
	fmt.Fprintf(w, "id: %s\n", ev.ID)
	fmt.Fprintf(w, "event: %s\n", ev.Type)
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
