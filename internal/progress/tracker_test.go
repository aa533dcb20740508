package progress

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"codevid/internal/model"
)

func newJob(t *testing.T, store *model.JobStore) *model.Job {
	t.Helper()
	job := &model.Job{
		ID:        "job-1",
		Status:    model.StatusPending,
		Prompt:    "fibonacci in go",
		CreatedAt: time.Now().UTC(),
	}
	store.Set(job)
	return job
}

func TestStartPhaseCarriesLogsAcrossPhases(t *testing.T) {
	store := model.NewJobStore()
	newJob(t, store)
	tracker := NewTracker(store, "job-1", 50)

	tracker.StartPhase(model.StatusGeneratingContent, 0)
	tracker.Log("content milestone")
	tracker.StartPhase(model.StatusGeneratingAudio, 3)

	job, _ := store.Get("job-1")
	if job.Status != model.StatusGeneratingAudio {
		t.Fatalf("status = %s, want generating_audio", job.Status)
	}
	if job.Progress.SubProgress != 0 {
		t.Fatalf("subProgress = %v, want 0 on phase start", job.Progress.SubProgress)
	}
	if job.Progress.CurrentStep != 1 || job.Progress.TotalSteps != 3 {
		t.Fatalf("steps = %d/%d, want 1/3", job.Progress.CurrentStep, job.Progress.TotalSteps)
	}

	found := false
	for _, entry := range job.Progress.Logs {
		if entry.Message == "content milestone" {
			found = true
		}
	}
	if !found {
		t.Fatal("log history not carried over into the new phase")
	}
}

func TestUpdateProgressClampsPercent(t *testing.T) {
	store := model.NewJobStore()
	newJob(t, store)
	tracker := NewTracker(store, "job-1", 50)

	tracker.UpdateProgress(150, "too much", 0, "")
	job, _ := store.Get("job-1")
	if job.Progress.SubProgress != 100 {
		t.Fatalf("subProgress = %v, want 100", job.Progress.SubProgress)
	}

	tracker.UpdateProgress(-10, "too little", 0, "")
	job, _ = store.Get("job-1")
	if job.Progress.SubProgress != 0 {
		t.Fatalf("subProgress = %v, want 0", job.Progress.SubProgress)
	}
}

func TestUpdateProgressLogsPercentActionAndDetail(t *testing.T) {
	store := model.NewJobStore()
	newJob(t, store)
	tracker := NewTracker(store, "job-1", 50)

	tracker.UpdateProgress(42.4, "Generating audio", 2, "step_2.mp3")

	job, _ := store.Get("job-1")
	if job.Progress.CurrentStep != 2 {
		t.Fatalf("currentStep = %d, want 2", job.Progress.CurrentStep)
	}
	last := job.Progress.Logs[len(job.Progress.Logs)-1]
	if last.Message != "[42%] Generating audio (step_2.mp3)" {
		t.Fatalf("log = %q", last.Message)
	}
}

func TestLogEvictsOldestEntries(t *testing.T) {
	store := model.NewJobStore()
	newJob(t, store)
	tracker := NewTracker(store, "job-1", 5)

	for i := 1; i <= 8; i++ {
		tracker.Log(fmt.Sprintf("entry %d", i))
	}

	job, _ := store.Get("job-1")
	if len(job.Progress.Logs) != 5 {
		t.Fatalf("logs = %d, want 5", len(job.Progress.Logs))
	}
	if job.Progress.Logs[0].Message != "entry 4" {
		t.Fatalf("oldest = %q, want entry 4", job.Progress.Logs[0].Message)
	}
	if job.Progress.Logs[4].Message != "entry 8" {
		t.Fatalf("newest = %q, want entry 8", job.Progress.Logs[4].Message)
	}
}

func TestCompletePhaseRequiresSnapshot(t *testing.T) {
	store := model.NewJobStore()
	newJob(t, store)
	tracker := NewTracker(store, "job-1", 50)

	// No phase started yet: nothing should change.
	tracker.CompletePhase()
	job, _ := store.Get("job-1")
	if job.Progress != nil {
		t.Fatal("completePhase created a snapshot out of nothing")
	}

	tracker.StartPhase(model.StatusRendering, 0)
	tracker.CompletePhase()
	job, _ = store.Get("job-1")
	if job.Progress.SubProgress != 100 {
		t.Fatalf("subProgress = %v, want 100", job.Progress.SubProgress)
	}
	last := job.Progress.Logs[len(job.Progress.Logs)-1]
	if !strings.Contains(last.Message, "Phase completed") {
		t.Fatalf("log = %q, want phase completion note", last.Message)
	}
}

func TestSetErrorIsTerminal(t *testing.T) {
	store := model.NewJobStore()
	newJob(t, store)
	tracker := NewTracker(store, "job-1", 50)

	tracker.StartPhase(model.StatusGeneratingAudio, 4)
	tracker.SetError("synthesis failed on step 2")

	job, _ := store.Get("job-1")
	if job.Status != model.StatusError {
		t.Fatalf("status = %s, want error", job.Status)
	}
	if job.Error != "synthesis failed on step 2" {
		t.Fatalf("error = %q", job.Error)
	}
	if job.CompletedAt == nil {
		t.Fatal("completedAt not stamped")
	}
	if !job.Status.IsTerminal() {
		t.Fatal("error state must be terminal")
	}
}
