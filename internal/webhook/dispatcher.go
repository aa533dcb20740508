// Package webhook delivers job-completion notifications to a
// caller-supplied URL with retry logic.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"codevid/internal/model"
)

// Dispatcher handles webhook delivery with exponential backoff
type Dispatcher struct {
	httpClient   *http.Client
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
}

// NewDispatcher creates a webhook dispatcher
func NewDispatcher(timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxAttempts:  3,
		initialDelay: 500 * time.Millisecond,
		maxDelay:     5 * time.Second,
		multiplier:   2,
	}
}

// completionPayload is what subscribers of a job's terminal state receive
type completionPayload struct {
	JobID       string          `json:"jobId"`
	Status      model.JobStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
	VideoURL    string          `json:"videoUrl,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// NotifyCompletion posts the job's terminal state to url, retrying
// transient failures with exponential backoff.
func (d *Dispatcher) NotifyCompletion(ctx context.Context, url string, job *model.Job) error {
	payload := completionPayload{
		JobID:       job.ID,
		Status:      job.Status,
		Error:       job.Error,
		CompletedAt: job.CompletedAt,
	}
	if job.Status == model.StatusCompleted {
		payload.VideoURL = "/api/videos/" + job.ID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		statusCode, err := d.deliver(ctx, url, body)
		if err == nil && statusCode >= 200 && statusCode < 300 {
			slog.Info("Webhook delivered",
				"job_id", job.ID,
				"webhook_url", url,
				"attempt", attempt,
			)
			return nil
		}

		if !shouldRetry(statusCode, err) || attempt == d.maxAttempts {
			slog.Error("Webhook delivery failed",
				"job_id", job.ID,
				"webhook_url", url,
				"attempt", attempt,
				"status_code", statusCode,
				"error", err,
			)
			return fmt.Errorf("webhook delivery failed after %d attempts", attempt)
		}

		delay := d.calculateDelay(attempt)
		slog.Warn("Webhook delivery failed, retrying",
			"job_id", job.ID,
			"webhook_url", url,
			"attempt", attempt,
			"next_retry_ms", delay.Milliseconds(),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("webhook delivery failed after %d attempts", d.maxAttempts)
}

// deliver performs a single delivery attempt
func (d *Dispatcher) deliver(ctx context.Context, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// calculateDelay computes the backoff before the next attempt:
// delay = min(initial * multiplier^(attempt-1), max)
func (d *Dispatcher) calculateDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(d.initialDelay) * math.Pow(d.multiplier, float64(attempt-1))
	if delay > float64(d.maxDelay) {
		delay = float64(d.maxDelay)
	}
	return time.Duration(delay)
}

// shouldRetry keeps retrying on network errors and server-side
// failures; client errors are final.
func shouldRetry(statusCode int, err error) bool {
	if err != nil && statusCode == 0 {
		return true
	}
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}
