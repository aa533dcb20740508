package model

import (
	"sync"
)

// JobStore is the in-memory registry of jobs, keyed by job ID.
// Entries live from creation until explicit deletion; nothing is
// persisted across process restarts.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty job registry
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
	}
}

// Set stores a job record
func (s *JobStore) Set(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get retrieves a snapshot of a job
func (s *JobStore) Get(jobID string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return nil, false
	}
	return job.Clone(), true
}

// List returns snapshots of all jobs
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.Clone())
	}
	return out
}

// IDs returns the set of registered job IDs
func (s *JobStore) IDs() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.jobs))
	for id := range s.jobs {
		out[id] = true
	}
	return out
}

// Update applies fn to the stored job under the write lock. All
// mutation after creation goes through here so readers only ever see
// consistent snapshots.
func (s *JobStore) Update(jobID string, fn func(*Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, exists := s.jobs[jobID]
	if !exists {
		return false
	}
	fn(job)
	return true
}

// Delete removes a job record
func (s *JobStore) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}
