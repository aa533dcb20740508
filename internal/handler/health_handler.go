package handler

import (
	"net/http"
	"time"

	"codevid/internal/model"
)

// HealthHandler handles service health checks
type HealthHandler struct {
	store     *model.JobStore
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *model.JobStore, version string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	ActiveJobs    int    `json:"active_jobs"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// Health returns the service health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	active := 0
	for _, job := range h.store.List() {
		if !job.Status.IsTerminal() {
			active++
		}
	}

	response := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ActiveJobs:    active,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	writeJSON(w, http.StatusOK, response)
}
