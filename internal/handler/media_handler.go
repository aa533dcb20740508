package handler

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"codevid/internal/model"
	"codevid/internal/storage"
)

// MediaHandler serves rendered videos and per-step audio artifacts.
type MediaHandler struct {
	store *model.JobStore
	media *storage.Store
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(store *model.JobStore, media *storage.Store) *MediaHandler {
	return &MediaHandler{
		store: store,
		media: media,
	}
}

// Video handles GET /api/videos/{id}
func (h *MediaHandler) Video(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if job.Status != model.StatusCompleted || job.VideoPath == "" {
		writeError(w, http.StatusNotFound, "Video not available")
		return
	}
	if _, err := os.Stat(job.VideoPath); err != nil {
		writeError(w, http.StatusNotFound, "Video not available")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".mp4"))
	http.ServeFile(w, r, job.VideoPath)
}

// Audio handles GET /api/audio/{id}/{step}. The renderer fetches step
// narration through this endpoint while composing the video.
func (h *MediaHandler) Audio(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]

	step, err := strconv.Atoi(vars["step"])
	if err != nil || step < 0 {
		writeError(w, http.StatusBadRequest, "Invalid step index")
		return
	}

	path := h.media.AudioPath(id, step)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "Audio not found")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}
