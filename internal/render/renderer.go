// Package render drives the Remotion video compositor through a Node
// subprocess, relaying its phase/percent progress stream.
package render

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codevid/internal/model"
	"codevid/internal/progress"
	"codevid/internal/storage"
	"codevid/internal/stream"
)

const framesPerSecond = 30

// Renderer invokes the Remotion programmatic API via node.
type Renderer struct {
	nodeBin     string
	remotionDir string
	baseURL     string
	store       *storage.Store
	hub         *stream.Hub
}

// NewRenderer creates a renderer rooted at the given Remotion project.
func NewRenderer(nodeBin, remotionDir, baseURL string, store *storage.Store, hub *stream.Hub) *Renderer {
	return &Renderer{
		nodeBin:     nodeBin,
		remotionDir: remotionDir,
		baseURL:     baseURL,
		store:       store,
		hub:         hub,
	}
}

// progressLine is one JSON status line from the render script.
type progressLine struct {
	Type    string  `json:"type"`
	Phase   string  `json:"phase"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// Render composes the final video. Audio artifacts are handed to the
// compositor as HTTP URLs because it cannot read file:// paths. The
// per-step durations size each composition segment.
func (r *Renderer) Render(
	ctx context.Context,
	jobID string,
	content *model.TutorialContent,
	durations []time.Duration,
	tracker *progress.Tracker,
) (string, error) {
	frames := make([]int, len(durations))
	audioURLs := make([]string, len(durations))
	for i, d := range durations {
		frames[i] = int(math.Ceil(d.Seconds() * framesPerSecond))
		audioURLs[i] = fmt.Sprintf("%s/api/audio/%s/%d", r.baseURL, jobID, i)
	}

	outputPath := r.store.VideoPath(jobID)
	script, err := buildScript(r.remotionDir, outputPath, content, audioURLs, frames)
	if err != nil {
		return "", fmt.Errorf("render script: %w", err)
	}

	if tracker != nil {
		tracker.UpdateProgress(10, "Starting Remotion render...", 0, "")
	}

	cmd := exec.CommandContext(ctx, r.nodeBin, "-e", script)
	cmd.Dir = filepath.Dir(r.remotionDir)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("renderer stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("renderer stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("renderer start: %w", err)
	}

	var stderrTail bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdoutPipe)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			r.handleLine(jobID, strings.TrimSpace(scanner.Text()), tracker)
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderrPipe)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			stderrTail.WriteString(line + "\n")
			r.hub.Broadcast(jobID, stream.EventStderr, line)
		}
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("render failed: %w: %s", err, strings.TrimSpace(stderrTail.String()))
	}

	return outputPath, nil
}

// handleLine maps one subprocess status line into overall progress:
// bundling fills 10-40%, composition selection sits at 40%, rendering
// fills 50-100%. Non-JSON chatter is forwarded as stdout.
func (r *Renderer) handleLine(jobID, line string, tracker *progress.Tracker) {
	if line == "" {
		return
	}

	var status progressLine
	if err := json.Unmarshal([]byte(line), &status); err != nil {
		r.hub.Broadcast(jobID, stream.EventStdout, line)
		return
	}

	if tracker == nil {
		return
	}

	switch status.Type {
	case "progress":
		switch status.Phase {
		case "bundling":
			tracker.UpdateProgress(10+status.Percent*0.3, fmt.Sprintf("Bundling: %d%%", int(status.Percent)), 0, "")
		case "selecting":
			tracker.UpdateProgress(40, "Bundle complete, preparing composition...", 0, "")
		case "rendering":
			tracker.UpdateProgress(50+status.Percent*0.5, fmt.Sprintf("Rendering video: %d%%", int(status.Percent)), 0, "")
		}
	case "complete":
		tracker.UpdateProgress(100, "Video render complete!", 0, "")
	case "error":
		tracker.Log(fmt.Sprintf("Renderer reported: %s", status.Message))
	}
}

// buildScript assembles the node program that runs the Remotion
// bundler and renderer, emitting JSON progress lines on stdout.
func buildScript(remotionDir, outputPath string, content *model.TutorialContent, audioURLs []string, frames []int) (string, error) {
	inputProps, err := json.Marshal(map[string]interface{}{
		"content":       content,
		"audioFiles":    audioURLs,
		"stepDurations": frames,
	})
	if err != nil {
		return "", err
	}

	dirJSON, err := json.Marshal(filepath.ToSlash(remotionDir))
	if err != nil {
		return "", err
	}
	outJSON, err := json.Marshal(filepath.ToSlash(outputPath))
	if err != nil {
		return "", err
	}
	framesJSON, err := json.Marshal(frames)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`
const { bundle } = require('@remotion/bundler');
const { renderMedia, selectComposition } = require('@remotion/renderer');
const path = require('path');

async function main() {
    const entryPoint = path.join(%s, 'index.ts');
    const inputProps = %s;
    const outputPath = %s;

    console.log(JSON.stringify({ type: 'progress', phase: 'bundling', percent: 0 }));

    const bundleLocation = await bundle({
        entryPoint,
        onProgress: (progress) => {
            console.log(JSON.stringify({ type: 'progress', phase: 'bundling', percent: progress }));
        },
    });

    console.log(JSON.stringify({ type: 'progress', phase: 'selecting', percent: 100 }));

    const composition = await selectComposition({
        serveUrl: bundleLocation,
        id: 'CodingTutorial',
        inputProps,
    });

    const totalDuration = %s.reduce((a, b) => a + b, 0) + (%d * 30);

    const compositionWithDuration = {
        ...composition,
        durationInFrames: totalDuration,
    };

    console.log(JSON.stringify({ type: 'progress', phase: 'rendering', percent: 0 }));

    await renderMedia({
        composition: compositionWithDuration,
        serveUrl: bundleLocation,
        codec: 'h264',
        outputLocation: outputPath,
        inputProps,
        onProgress: ({ progress }) => {
            console.log(JSON.stringify({ type: 'progress', phase: 'rendering', percent: progress * 100 }));
        },
    });

    console.log(JSON.stringify({ type: 'complete', outputPath }));
}

main().catch((err) => {
    console.error(JSON.stringify({ type: 'error', message: err.message }));
    process.exit(1);
});
`, dirJSON, string(inputProps), outJSON, framesJSON, len(frames)), nil
}
