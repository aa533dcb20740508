package janitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"codevid/internal/model"
	"codevid/internal/storage"
)

// Janitor periodically removes output artifacts that no longer belong
// to any known job. Job records themselves are never touched: a job
// stays queryable until a client deletes it.
type Janitor struct {
	store     *model.JobStore
	media     *storage.Store
	schedule  cron.Schedule
	retention time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewJanitor creates a janitor from a cron expression. Descriptor
// forms like "@every 10m" are accepted.
func NewJanitor(store *model.JobStore, media *storage.Store, schedule string, retention time.Duration) (*Janitor, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}

	return &Janitor{
		store:     store,
		media:     media,
		schedule:  sched,
		retention: retention,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start begins the sweep loop in the background.
func (j *Janitor) Start() {
	slog.Info("Starting janitor", "retention", j.retention)
	j.wg.Add(1)
	go j.run()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (j *Janitor) Stop(ctx context.Context) {
	close(j.stopChan)

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Janitor stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for janitor sweep to complete")
	}
}

func (j *Janitor) run() {
	defer j.wg.Done()

	for {
		next := j.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			j.Sweep()
		case <-j.stopChan:
			timer.Stop()
			return
		}
	}
}

// Sweep removes orphaned artifacts older than the retention window.
func (j *Janitor) Sweep() {
	removed := j.media.SweepOrphans(j.store.IDs(), j.retention)
	if removed > 0 {
		slog.Info("Janitor removed orphaned artifacts", "count", removed)
	}
}
