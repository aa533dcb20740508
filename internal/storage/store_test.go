package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	store := NewStore(root, filepath.Join(root, "audio"))
	if err := store.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	return store
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestArtifactNaming(t *testing.T) {
	store := NewStore("out", "out/audio")
	if got := store.AudioPath("abc", 2); got != filepath.Join("out/audio", "abc_step_2.mp3") {
		t.Fatalf("AudioPath = %q", got)
	}
	if got := store.VideoPath("abc"); got != filepath.Join("out", "abc.mp4") {
		t.Fatalf("VideoPath = %q", got)
	}
}

func TestCleanupAudioRemovesOnlyOwnFiles(t *testing.T) {
	store := newStore(t)
	touch(t, store.AudioPath("job-a", 0))
	touch(t, store.AudioPath("job-a", 1))
	touch(t, store.AudioPath("job-b", 0))

	store.CleanupAudio("job-a")

	if store.AudioExists("job-a", 0) || store.AudioExists("job-a", 1) {
		t.Fatal("job-a artifacts survived cleanup")
	}
	if !store.AudioExists("job-b", 0) {
		t.Fatal("job-b artifact removed by another job's cleanup")
	}
}

func TestDeleteVideoMissingIsNoOp(t *testing.T) {
	store := newStore(t)
	store.DeleteVideo("never-rendered")

	touch(t, store.VideoPath("job-a"))
	store.DeleteVideo("job-a")
	if _, err := os.Stat(store.VideoPath("job-a")); !os.IsNotExist(err) {
		t.Fatal("video not deleted")
	}
}

func TestSweepOrphansSkipsLiveAndRecentFiles(t *testing.T) {
	store := newStore(t)

	old := time.Now().Add(-2 * time.Hour)
	touch(t, store.AudioPath("dead", 0))
	touch(t, store.VideoPath("dead"))
	touch(t, store.AudioPath("live", 0))
	touch(t, store.VideoPath("recent"))
	for _, path := range []string{store.AudioPath("dead", 0), store.VideoPath("dead"), store.AudioPath("live", 0)} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := store.SweepOrphans(map[string]bool{"live": true}, time.Hour)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if !store.AudioExists("live", 0) {
		t.Fatal("live job artifact swept")
	}
	if _, err := os.Stat(store.VideoPath("recent")); err != nil {
		t.Fatal("recent artifact swept before retention elapsed")
	}
	if store.AudioExists("dead", 0) {
		t.Fatal("orphaned audio survived sweep")
	}
}
