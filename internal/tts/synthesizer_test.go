package tts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRateString(t *testing.T) {
	cases := []struct {
		speed float64
		want  string
	}{
		{1.0, "+0%"},
		{1.25, "+25%"},
		{1.5, "+50%"},
		{0.8, "-20%"},
		{0.5, "-50%"},
		{0, "+0%"},
	}
	for _, tc := range cases {
		if got := RateString(tc.speed); got != tc.want {
			t.Fatalf("RateString(%v) = %q, want %q", tc.speed, got, tc.want)
		}
	}
}

func TestDurationFallsBackToSizeEstimate(t *testing.T) {
	s := NewSynthesizer("edge-tts", "/nonexistent/ffprobe", "en-US-GuyNeural")

	// 160 KiB at ~16 KiB/s is a 10 second estimate.
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, make([]byte, 160*1024), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := s.Duration(context.Background(), path)
	if got != 10*time.Second {
		t.Fatalf("duration = %v, want 10s", got)
	}
}

func TestDurationEstimateHasFloor(t *testing.T) {
	s := NewSynthesizer("edge-tts", "/nonexistent/ffprobe", "en-US-GuyNeural")

	path := filepath.Join(t.TempDir(), "tiny.mp3")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := s.Duration(context.Background(), path); got != 5*time.Second {
		t.Fatalf("duration = %v, want 5s floor", got)
	}
}

func TestDurationDefaultsWhenFileMissing(t *testing.T) {
	s := NewSynthesizer("edge-tts", "/nonexistent/ffprobe", "en-US-GuyNeural")

	if got := s.Duration(context.Background(), "/no/such/file.mp3"); got != 10*time.Second {
		t.Fatalf("duration = %v, want 10s default", got)
	}
}
