// Package progress maintains the mutable progress record of a running
// job: phase, sub-progress percentage, step counters and a bounded
// rolling log.
package progress

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"codevid/internal/model"
)

// Tracker updates one job's progress through the job store so readers
// only ever observe consistent snapshots.
type Tracker struct {
	store   *model.JobStore
	jobID   string
	maxLogs int
}

// NewTracker creates a tracker for a job
func NewTracker(store *model.JobStore, jobID string, maxLogs int) *Tracker {
	if maxLogs <= 0 {
		maxLogs = 50
	}
	return &Tracker{
		store:   store,
		jobID:   jobID,
		maxLogs: maxLogs,
	}
}

// StartPhase moves the job into status and replaces its progress with a
// fresh snapshot. Log history carries over: logs are cumulative across
// phases, not per-phase.
func (t *Tracker) StartPhase(status model.JobStatus, totalSteps int) {
	t.store.Update(t.jobID, func(job *model.Job) {
		var logs []model.LogEntry
		if job.Progress != nil {
			logs = job.Progress.Logs
		}

		progress := &model.ProgressDetails{
			CurrentAction:  defaultAction(status),
			SubProgress:    0,
			PhaseStartedAt: time.Now().UTC(),
			Logs:           logs,
		}
		if totalSteps > 0 {
			progress.CurrentStep = 1
			progress.TotalSteps = totalSteps
		}

		job.Status = status
		job.Progress = progress
	})
	t.Log(fmt.Sprintf("Starting phase: %s", status))
}

// UpdateProgress records sub-progress within the current phase. The
// percentage is clamped to [0,100]; a missing snapshot is created
// lazily.
func (t *Tracker) UpdateProgress(percent float64, action string, step int, detail string) {
	percent = math.Max(0, math.Min(100, percent))

	t.store.Update(t.jobID, func(job *model.Job) {
		if job.Progress == nil {
			job.Progress = &model.ProgressDetails{
				PhaseStartedAt: time.Now().UTC(),
			}
		}
		job.Progress.SubProgress = percent
		job.Progress.CurrentAction = action
		if step > 0 {
			job.Progress.CurrentStep = step
		}
	})

	message := action
	if detail != "" {
		message = fmt.Sprintf("%s (%s)", action, detail)
	}
	t.Log(fmt.Sprintf("[%d%%] %s", int(math.Round(percent)), message))
}

// Log appends a timestamped entry, evicting the oldest entries once the
// cap is exceeded, and mirrors the message to the operational log.
func (t *Tracker) Log(message string) {
	t.store.Update(t.jobID, func(job *model.Job) {
		if job.Progress == nil {
			job.Progress = &model.ProgressDetails{
				PhaseStartedAt: time.Now().UTC(),
			}
		}
		job.Progress.Logs = append(job.Progress.Logs, model.LogEntry{
			Timestamp: time.Now().UTC(),
			Message:   message,
		})
		if len(job.Progress.Logs) > t.maxLogs {
			trim := len(job.Progress.Logs) - t.maxLogs
			job.Progress.Logs = append([]model.LogEntry(nil), job.Progress.Logs[trim:]...)
		}
	})

	slog.Info("Job progress",
		"job_id", t.jobID,
		"message", message,
	)
}

// CompletePhase marks the current phase finished, if one was started.
func (t *Tracker) CompletePhase() {
	var status model.JobStatus
	updated := false
	t.store.Update(t.jobID, func(job *model.Job) {
		if job.Progress == nil {
			return
		}
		job.Progress.SubProgress = 100
		status = job.Status
		updated = true
	})
	if updated {
		t.Log(fmt.Sprintf("Phase completed: %s", status))
	}
}

// SetError moves the job to its terminal error state.
func (t *Tracker) SetError(message string) {
	t.store.Update(t.jobID, func(job *model.Job) {
		now := time.Now().UTC()
		job.Status = model.StatusError
		job.Error = message
		job.CompletedAt = &now
	})
	t.Log(fmt.Sprintf("Error: %s", message))
}

// defaultAction maps a status to its initial action description.
func defaultAction(status model.JobStatus) string {
	switch status {
	case model.StatusPending:
		return "Waiting to start..."
	case model.StatusGeneratingContent:
		return "AI is generating tutorial content..."
	case model.StatusGeneratingAudio:
		return "Converting text to speech..."
	case model.StatusRendering:
		return "Rendering video..."
	case model.StatusCompleted:
		return "Done!"
	case model.StatusError:
		return "An error occurred"
	default:
		return "Processing..."
	}
}
