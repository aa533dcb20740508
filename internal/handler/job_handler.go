package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"codevid/internal/deadline"
	"codevid/internal/model"
	"codevid/internal/storage"
	"codevid/internal/stream"
)

// Scheduler starts background execution of a registered job.
type Scheduler interface {
	Start(jobID string)
}

// Previewer produces tutorial content without creating a job.
type Previewer interface {
	Preview(ctx context.Context, prompt, language string, style model.StyleLevel) (*model.TutorialContent, error)
}

// JobHandler handles job lifecycle operations
type JobHandler struct {
	store          *model.JobStore
	hub            *stream.Hub
	media          *storage.Store
	scheduler      Scheduler
	previewer      Previewer
	previewTimeout time.Duration
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	store *model.JobStore,
	hub *stream.Hub,
	media *storage.Store,
	scheduler Scheduler,
	previewer Previewer,
	previewTimeout time.Duration,
) *JobHandler {
	return &JobHandler{
		store:          store,
		hub:            hub,
		media:          media,
		scheduler:      scheduler,
		previewer:      previewer,
		previewTimeout: previewTimeout,
	}
}

// GenerateResponse represents the generate response
type GenerateResponse struct {
	JobID  string          `json:"jobId"`
	Status model.JobStatus `json:"status"`
}

// PreviewResponse represents the preview response
type PreviewResponse struct {
	Content *model.TutorialContent `json:"content"`
}

// ListJobsResponse represents the job list response
type ListJobsResponse struct {
	Total int          `json:"total"`
	Jobs  []*model.Job `json:"jobs"`
}

// DeleteResponse represents the delete response
type DeleteResponse struct {
	Message string `json:"message"`
}

// Generate handles POST /api/generate
func (h *JobHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := &model.Job{
		ID:         uuid.New().String(),
		Status:     model.StatusPending,
		Prompt:     req.Prompt,
		Language:   req.Language,
		Style:      req.Style,
		VoiceSpeed: req.VoiceSpeed,
		WebhookURL: req.WebhookURL,
		CreatedAt:  time.Now().UTC(),
	}
	h.store.Set(job)
	h.scheduler.Start(job.ID)

	writeJSON(w, http.StatusAccepted, GenerateResponse{
		JobID:  job.ID,
		Status: job.Status,
	})
}

// Preview handles POST /api/preview
func (h *JobHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := deadline.Run(r.Context(), h.previewTimeout, "Content preview",
		func(ctx context.Context) (*model.TutorialContent, error) {
			return h.previewer.Preview(ctx, req.Prompt, req.Language, req.Style)
		})
	if err != nil {
		var dl *deadline.Error
		if errors.As(err, &dl) {
			writeError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, PreviewResponse{Content: content})
}

// List handles GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.store.List()
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	writeJSON(w, http.StatusOK, ListJobsResponse{
		Total: len(jobs),
		Jobs:  jobs,
	})
}

// Get handles GET /api/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Delete handles DELETE /api/jobs/{id}. Artifacts go first, then the
// stream buffer, then the record.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, ok := h.store.Get(id); !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	h.media.DeleteVideo(id)
	h.media.CleanupAudio(id)
	h.hub.Cleanup(id)
	h.store.Delete(id)

	writeJSON(w, http.StatusOK, DeleteResponse{Message: "Job deleted"})
}
