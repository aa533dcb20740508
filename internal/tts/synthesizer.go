// Package tts synthesizes narration audio through the edge-tts CLI and
// probes artifact durations with ffprobe.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	// probePadding keeps narration from being cut off at the end of
	// a step.
	probePadding = 500 * time.Millisecond

	// estimateBytesPerSecond approximates a 128kbps mp3.
	estimateBytesPerSecond = 16 * 1024

	minEstimatedDuration = 5 * time.Second
	defaultDuration      = 10 * time.Second
)

// Synthesizer produces one playable audio artifact per narration text.
type Synthesizer struct {
	bin        string
	ffprobeBin string
	voice      string
}

// NewSynthesizer creates a synthesizer for the configured voice.
func NewSynthesizer(bin, ffprobeBin, voice string) *Synthesizer {
	return &Synthesizer{bin: bin, ffprobeBin: ffprobeBin, voice: voice}
}

// Synthesize converts text to speech and writes the artifact to
// outputPath. speed is a multiplier where 1.0 is the natural rate.
func (s *Synthesizer) Synthesize(ctx context.Context, text, outputPath string, speed float64) error {
	cmd := exec.CommandContext(ctx, s.bin,
		"--text", text,
		"--voice", s.voice,
		"--rate="+RateString(speed),
		"--write-media", outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("speech synthesis failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Duration returns the playable length of an artifact. Probing
// failures fall back to a file-size estimate, then a fixed default;
// the job never fails over a duration probe.
func (s *Synthesizer) Duration(ctx context.Context, path string) time.Duration {
	if probed, err := s.probe(ctx, path); err == nil {
		return probed + probePadding
	}

	if info, err := os.Stat(path); err == nil {
		estimated := time.Duration(float64(info.Size()) / estimateBytesPerSecond * float64(time.Second))
		if estimated < minEstimatedDuration {
			estimated = minEstimatedDuration
		}
		return estimated
	}

	return defaultDuration
}

func (s *Synthesizer) probe(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, s.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=nokey=1:noprint_wrappers=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}

	value := strings.TrimSpace(string(out))
	if value == "" {
		return 0, fmt.Errorf("duration missing")
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// RateString converts a speed multiplier into the percentage form the
// CLI expects: 1.25 becomes "+25%", 0.8 becomes "-20%".
func RateString(speed float64) string {
	switch {
	case speed > 1:
		return fmt.Sprintf("+%d%%", int(math.Round((speed-1)*100)))
	case speed < 1 && speed > 0:
		return fmt.Sprintf("-%d%%", int(math.Round((1-speed)*100)))
	default:
		return "+0%"
	}
}
