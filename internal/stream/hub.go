// Package stream implements the per-job event broadcast bus: a bounded
// ring of sequenced events plus a set of live subscribers, with
// late-join replay and grace-period teardown after completion.
package stream

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// EventType classifies messages broadcast during job execution.
type EventType string

const (
	EventStdout    EventType = "stdout"
	EventStderr    EventType = "stderr"
	EventStatus    EventType = "status"
	EventConnected EventType = "connected"
	EventHistory   EventType = "history"
)

// Event is one sequenced, timestamped unit of broadcast output.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`

	seq int64
}

// jobBuffer is the retained-event window plus subscriber set for one job.
type jobBuffer struct {
	lines        []Event
	eventCounter int64
	isComplete   bool
	subscribers  map[*Subscription]struct{}
}

// Hub fans broadcast events out to subscribers and retains a bounded
// backlog per job for reconnecting clients.
type Hub struct {
	mu        sync.Mutex
	maxEvents int
	queueLen  int
	grace     time.Duration
	jobs      map[string]*jobBuffer
	cleanups  map[string]*time.Timer
}

// NewHub creates a hub with the given per-job ring capacity, per-subscriber
// queue capacity, and post-completion teardown grace period.
func NewHub(maxEvents, queueLen int, grace time.Duration) *Hub {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	if queueLen <= 0 {
		queueLen = 100
	}
	return &Hub{
		maxEvents: maxEvents,
		queueLen:  queueLen,
		grace:     grace,
		jobs:      make(map[string]*jobBuffer),
		cleanups:  make(map[string]*time.Timer),
	}
}

func (h *Hub) getOrCreateLocked(jobID string) *jobBuffer {
	buffer, ok := h.jobs[jobID]
	if !ok {
		buffer = &jobBuffer{subscribers: make(map[*Subscription]struct{})}
		h.jobs[jobID] = buffer
	}
	return buffer
}

func (h *Hub) nextEventLocked(buffer *jobBuffer, eventType EventType, data string) Event {
	buffer.eventCounter++
	return Event{
		ID:        strconv.FormatInt(buffer.eventCounter, 10),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		seq:       buffer.eventCounter,
	}
}

// Broadcast assigns the next sequence id, retains the event, and offers
// it to every subscriber. Delivery never blocks: a subscriber whose
// queue is full silently misses the event.
func (h *Hub) Broadcast(jobID string, eventType EventType, data string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(jobID, eventType, data)
}

func (h *Hub) broadcastLocked(jobID string, eventType EventType, data string) {
	buffer := h.getOrCreateLocked(jobID)
	event := h.nextEventLocked(buffer, eventType, data)

	buffer.lines = append(buffer.lines, event)
	if len(buffer.lines) > h.maxEvents {
		trim := len(buffer.lines) - h.maxEvents
		buffer.lines = append([]Event(nil), buffer.lines[trim:]...)
	}

	for sub := range buffer.subscribers {
		select {
		case sub.ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber for a job. Its queue is primed
// with a synthetic connected event and, when lastEventID is behind the
// retained window, a single history event replaying the missed events
// in order. Events evicted from the ring are unrecoverable and are
// replayed without any gap signal.
func (h *Hub) Subscribe(jobID, lastEventID string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if timer, ok := h.cleanups[jobID]; ok {
		timer.Stop()
		delete(h.cleanups, jobID)
	}

	buffer := h.getOrCreateLocked(jobID)
	sub := &Subscription{
		hub:   h,
		jobID: jobID,
		ch:    make(chan Event, h.queueLen),
	}

	connected := h.nextEventLocked(buffer, EventConnected, "Connected to job "+jobID)
	sub.ch <- connected

	if len(buffer.lines) > 0 {
		lastSeen, _ := strconv.ParseInt(lastEventID, 10, 64)
		missed := make([]Event, 0, len(buffer.lines))
		for _, line := range buffer.lines {
			if line.seq > lastSeen {
				missed = append(missed, line)
			}
		}
		if len(missed) > 0 {
			payload, err := json.Marshal(missed)
			if err == nil {
				history := h.nextEventLocked(buffer, EventHistory, string(payload))
				sub.ch <- history
			}
		}
	}

	buffer.subscribers[sub] = struct{}{}
	return sub
}

// CompleteJob marks the buffer complete, broadcasts a final status event
// and schedules teardown after the grace period. Repeated calls are
// no-ops; unknown job ids are ignored.
func (h *Hub) CompleteJob(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buffer, ok := h.jobs[jobID]
	if !ok || buffer.isComplete {
		return
	}

	buffer.isComplete = true
	h.broadcastLocked(jobID, EventStatus, "completed")

	h.cleanups[jobID] = time.AfterFunc(h.grace, func() {
		h.Cleanup(jobID)
	})
}

// Cleanup cancels any pending teardown and discards the job's buffer
// and subscriber registrations. Safe on unknown job ids.
func (h *Hub) Cleanup(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if timer, ok := h.cleanups[jobID]; ok {
		timer.Stop()
		delete(h.cleanups, jobID)
	}
	delete(h.jobs, jobID)
}

// Completed reports whether the job's stream has been marked complete.
// A job without a buffer counts as complete so that streams left over
// after Cleanup terminate.
func (h *Hub) Completed(jobID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	buffer, ok := h.jobs[jobID]
	if !ok {
		return true
	}
	return buffer.isComplete
}

// ClientCount returns the number of live subscribers for a job.
func (h *Hub) ClientCount(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	buffer, ok := h.jobs[jobID]
	if !ok {
		return 0
	}
	return len(buffer.subscribers)
}

// Subscription is one live consumer of a job's event stream.
type Subscription struct {
	hub   *Hub
	jobID string
	ch    chan Event
}

// Events returns the subscriber's inbound queue.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Done reports the stream termination condition: the job is complete
// and every queued event has been consumed.
func (s *Subscription) Done() bool {
	return s.hub.Completed(s.jobID) && len(s.ch) == 0
}

// Close deregisters the subscriber. Events already queued remain
// readable; closing twice is harmless.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if buffer, ok := s.hub.jobs[s.jobID]; ok {
		delete(buffer.subscribers, s)
	}
}
