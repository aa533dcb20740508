// Package storage manages the media artifacts a job produces: per-step
// audio files and the final rendered video.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store manages output paths for generated media.
type Store struct {
	OutputDir string
	AudioDir  string
}

// NewStore creates a filesystem adapter with configured roots.
func NewStore(outputDir, audioDir string) *Store {
	return &Store{OutputDir: outputDir, AudioDir: audioDir}
}

// EnsureDirs creates the output roots used by the service.
func (s *Store) EnsureDirs() error {
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(s.AudioDir, 0o755); err != nil {
		return err
	}
	return nil
}

// AudioPath returns the artifact path for one narration step.
func (s *Store) AudioPath(jobID string, step int) string {
	return filepath.Join(s.AudioDir, fmt.Sprintf("%s_step_%d.mp3", jobID, step))
}

// VideoPath returns the final video artifact path for a job.
func (s *Store) VideoPath(jobID string) string {
	return filepath.Join(s.OutputDir, jobID+".mp4")
}

// AudioExists checks whether a step artifact is on disk.
func (s *Store) AudioExists(jobID string, step int) bool {
	info, err := os.Stat(s.AudioPath(jobID, step))
	return err == nil && !info.IsDir()
}

// CleanupAudio removes every audio artifact belonging to a job.
// Missing files are not an error.
func (s *Store) CleanupAudio(jobID string) {
	matches, err := filepath.Glob(filepath.Join(s.AudioDir, jobID+"_*"))
	if err != nil {
		return
	}
	for _, match := range matches {
		_ = os.Remove(match)
	}
}

// DeleteVideo removes a job's rendered video, if present.
func (s *Store) DeleteVideo(jobID string) {
	_ = os.Remove(s.VideoPath(jobID))
}

// SweepOrphans removes artifact files whose owning job is no longer
// registered and whose modification time is older than retention.
// Files of live jobs are never touched regardless of age.
func (s *Store) SweepOrphans(live map[string]bool, retention time.Duration) int {
	cutoff := time.Now().Add(-retention)
	removed := 0

	for _, dir := range []string{s.AudioDir, s.OutputDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			jobID := ownerJobID(entry.Name())
			if jobID == "" || live[jobID] {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			if os.Remove(filepath.Join(dir, entry.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}

// ownerJobID derives the job id an artifact file belongs to from its
// name: "<id>_step_<n>.mp3" for audio, "<id>.mp4" for video.
func ownerJobID(name string) string {
	if idx := strings.Index(name, "_step_"); idx > 0 {
		return name[:idx]
	}
	if strings.HasSuffix(name, ".mp4") {
		return strings.TrimSuffix(name, ".mp4")
	}
	return ""
}
