package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"codevid/internal/model"
)

func fastDispatcher() *Dispatcher {
	d := NewDispatcher(time.Second)
	d.initialDelay = time.Millisecond
	d.maxDelay = 5 * time.Millisecond
	return d
}

func TestNotifyCompletionDeliversPayload(t *testing.T) {
	var got completionPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	now := time.Now().UTC()
	job := &model.Job{ID: "job-1", Status: model.StatusCompleted, CompletedAt: &now, VideoPath: "output/job-1.mp4"}

	if err := fastDispatcher().NotifyCompletion(context.Background(), server.URL, job); err != nil {
		t.Fatalf("NotifyCompletion: %v", err)
	}
	if got.JobID != "job-1" || got.Status != model.StatusCompleted {
		t.Fatalf("payload = %+v", got)
	}
	if got.VideoURL != "/api/videos/job-1" {
		t.Fatalf("videoUrl = %q", got.VideoURL)
	}
}

func TestNotifyCompletionRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	job := &model.Job{ID: "job-1", Status: model.StatusError, Error: "render failed"}
	if err := fastDispatcher().NotifyCompletion(context.Background(), server.URL, job); err != nil {
		t.Fatalf("NotifyCompletion: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestNotifyCompletionDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	job := &model.Job{ID: "job-1", Status: model.StatusCompleted}
	if err := fastDispatcher().NotifyCompletion(context.Background(), server.URL, job); err == nil {
		t.Fatal("expected delivery failure")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
	}
}

func TestCalculateDelayBacksOffExponentially(t *testing.T) {
	d := NewDispatcher(time.Second)
	if d.calculateDelay(1) != 500*time.Millisecond {
		t.Fatalf("attempt 1 delay = %v", d.calculateDelay(1))
	}
	if d.calculateDelay(2) != time.Second {
		t.Fatalf("attempt 2 delay = %v", d.calculateDelay(2))
	}
	if d.calculateDelay(10) != 5*time.Second {
		t.Fatalf("attempt 10 delay = %v, want cap", d.calculateDelay(10))
	}
}
