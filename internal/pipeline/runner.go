// Package pipeline drives a generation job through its stages: content
// generation, audio synthesis and video rendering. Each run is a
// supervised background goroutine whose outcome always lands in the
// job's terminal state.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"codevid/internal/deadline"
	"codevid/internal/model"
	"codevid/internal/progress"
	"codevid/internal/storage"
	"codevid/internal/stream"
)

// ContentGenerator produces structured tutorial content for a prompt.
type ContentGenerator interface {
	Generate(ctx context.Context, jobID, prompt, language string, style model.StyleLevel, tracker *progress.Tracker) (*model.TutorialContent, error)
}

// SpeechSynthesizer turns narration text into one audio artifact per
// step and reports artifact durations.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, outputPath string, speed float64) error
	Duration(ctx context.Context, path string) time.Duration
}

// VideoRenderer composes the final video from content and step timings.
type VideoRenderer interface {
	Render(ctx context.Context, jobID string, content *model.TutorialContent, durations []time.Duration, tracker *progress.Tracker) (string, error)
}

// Notifier delivers a job's terminal state to an external URL.
type Notifier interface {
	NotifyCompletion(ctx context.Context, url string, job *model.Job) error
}

// Timeouts bounds each stage of the pipeline.
type Timeouts struct {
	Content   time.Duration
	AudioStep time.Duration
	Bundle    time.Duration
	Render    time.Duration
}

// Runner owns job execution. One goroutine per job, bounded by a
// concurrency semaphore.
type Runner struct {
	store       *model.JobStore
	hub         *stream.Hub
	media       *storage.Store
	generator   ContentGenerator
	synthesizer SpeechSynthesizer
	renderer    VideoRenderer
	notifier    Notifier
	timeouts    Timeouts
	maxLogs     int
	sem         chan struct{}
}

// NewRunner creates a pipeline runner
func NewRunner(
	store *model.JobStore,
	hub *stream.Hub,
	media *storage.Store,
	generator ContentGenerator,
	synthesizer SpeechSynthesizer,
	renderer VideoRenderer,
	notifier Notifier,
	timeouts Timeouts,
	maxLogs int,
	maxConcurrent int,
) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{
		store:       store,
		hub:         hub,
		media:       media,
		generator:   generator,
		synthesizer: synthesizer,
		renderer:    renderer,
		notifier:    notifier,
		timeouts:    timeouts,
		maxLogs:     maxLogs,
		sem:         make(chan struct{}, maxConcurrent),
	}
}

// Start schedules a job for background execution and returns
// immediately.
func (r *Runner) Start(jobID string) {
	go r.run(jobID)
}

func (r *Runner) run(jobID string) {
	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	ctx := context.Background()
	tracker := progress.NewTracker(r.store, jobID, r.maxLogs)

	// A run may never die silently: panics become the job's error state.
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Pipeline run panicked", "job_id", jobID, "panic", rec)
			r.fail(tracker, jobID, fmt.Errorf("internal error: %v", rec))
		}
	}()

	found := r.store.Update(jobID, func(job *model.Job) {
		now := time.Now().UTC()
		job.StartedAt = &now
	})
	if !found {
		return
	}
	job, _ := r.store.Get(jobID)

	slog.Info("Starting generation job", "job_id", jobID, "prompt", job.Prompt)

	// Stage 1: content
	tracker.StartPhase(model.StatusGeneratingContent, 0)
	r.hub.Broadcast(jobID, stream.EventStatus, string(model.StatusGeneratingContent))

	content, err := deadline.Run(ctx, r.timeouts.Content, "Content generation",
		func(ctx context.Context) (*model.TutorialContent, error) {
			return r.generator.Generate(ctx, jobID, job.Prompt, job.Language, job.Style, tracker)
		})
	if err != nil {
		r.fail(tracker, jobID, &StageError{Stage: model.StatusGeneratingContent, Err: err})
		return
	}
	r.store.Update(jobID, func(job *model.Job) { job.Content = content })
	tracker.CompletePhase()

	// Stage 2: audio, one artifact per step, aborted on first failure
	total := len(content.Steps)
	tracker.StartPhase(model.StatusGeneratingAudio, total)
	r.hub.Broadcast(jobID, stream.EventStatus, string(model.StatusGeneratingAudio))

	audioFiles := make([]string, 0, total)
	for i, step := range content.Steps {
		percent := math.Round(float64(i) / float64(total) * 100)
		tracker.UpdateProgress(percent, fmt.Sprintf("Generating audio for step %d/%d", i+1, total), i+1, "")

		outputPath := r.media.AudioPath(jobID, i)
		_, err := deadline.Run(ctx, r.timeouts.AudioStep, fmt.Sprintf("Audio generation for step %d", i+1),
			func(ctx context.Context) (struct{}, error) {
				return struct{}{}, r.synthesizer.Synthesize(ctx, step.Explanation, outputPath, job.VoiceSpeed)
			})
		if err != nil {
			r.fail(tracker, jobID, &StageError{Stage: model.StatusGeneratingAudio, Err: err})
			return
		}
		audioFiles = append(audioFiles, outputPath)
	}
	tracker.UpdateProgress(100, "Audio generation complete", total, "")
	r.store.Update(jobID, func(job *model.Job) { job.AudioFiles = audioFiles })
	tracker.CompletePhase()

	// Stage 3: render
	tracker.StartPhase(model.StatusRendering, 0)
	r.hub.Broadcast(jobID, stream.EventStatus, string(model.StatusRendering))

	tracker.UpdateProgress(5, "Calculating audio durations...", 0, "")
	durations := make([]time.Duration, len(audioFiles))
	for i, path := range audioFiles {
		durations[i] = r.synthesizer.Duration(ctx, path)
	}

	videoPath, err := deadline.Run(ctx, r.timeouts.Render+r.timeouts.Bundle, "Video rendering",
		func(ctx context.Context) (string, error) {
			return r.renderer.Render(ctx, jobID, content, durations, tracker)
		})
	if err != nil {
		r.fail(tracker, jobID, &StageError{Stage: model.StatusRendering, Err: err})
		return
	}

	now := time.Now().UTC()
	r.store.Update(jobID, func(job *model.Job) {
		job.VideoPath = videoPath
		job.Status = model.StatusCompleted
		job.CompletedAt = &now
	})
	tracker.CompletePhase()

	// Audio artifacts are ephemeral once the video exists.
	r.media.CleanupAudio(jobID)

	r.hub.CompleteJob(jobID)
	r.notify(ctx, jobID)
	slog.Info("Job completed", "job_id", jobID, "video_path", videoPath)
}

// fail records the terminal error state and releases observers.
func (r *Runner) fail(tracker *progress.Tracker, jobID string, err error) {
	slog.Error("Job failed", "job_id", jobID, "error", err)
	tracker.SetError(err.Error())
	r.hub.Broadcast(jobID, stream.EventStatus, "error")
	r.hub.CompleteJob(jobID)
	r.notify(context.Background(), jobID)
}

func (r *Runner) notify(ctx context.Context, jobID string) {
	if r.notifier == nil {
		return
	}
	job, ok := r.store.Get(jobID)
	if !ok || job.WebhookURL == "" {
		return
	}
	if err := r.notifier.NotifyCompletion(ctx, job.WebhookURL, job); err != nil {
		slog.Warn("Completion webhook not delivered",
			"job_id", jobID,
			"webhook_url", job.WebhookURL,
			"error", err,
		)
	}
}
