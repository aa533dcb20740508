// Package content invokes the AI content generator and turns its
// output into structured tutorial content.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"codevid/internal/model"
	"codevid/internal/progress"
	"codevid/internal/stream"
)

// Generator spawns the claude CLI to produce tutorial content.
type Generator struct {
	bin string
	hub *stream.Hub
}

// NewGenerator creates a content generator backed by the given binary.
func NewGenerator(bin string, hub *stream.Hub) *Generator {
	return &Generator{bin: bin, hub: hub}
}

// Preview generates content without a job: nothing is broadcast and
// no progress is tracked.
func (g *Generator) Preview(ctx context.Context, prompt, language string, style model.StyleLevel) (*model.TutorialContent, error) {
	return g.Generate(ctx, "", prompt, language, style, nil)
}

// Generate runs the CLI with the assembled prompt and parses its
// output. Intermediate chatter is relayed to the broadcast bus when a
// job id is given; tracker may be nil (preview mode).
func (g *Generator) Generate(
	ctx context.Context,
	jobID, prompt, language string,
	style model.StyleLevel,
	tracker *progress.Tracker,
) (*model.TutorialContent, error) {
	fullPrompt := BuildPrompt(prompt, language, style)

	if tracker != nil {
		tracker.UpdateProgress(10, "Preparing prompt for AI...", 0, "")
		tracker.UpdateProgress(20, "AI is generating content...", 0, "")
	}

	cmd := exec.CommandContext(ctx, g.bin, "-p", fullPrompt, "--output-format", "json")

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("content generator stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("content generator stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("content generator start: %w", err)
	}

	var stdout, stderr bytes.Buffer
	var firstChunk sync.Once

	// Both streams are drained to completion together so no trailing
	// output is lost before the process is considered finished.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		g.relay(jobID, stream.EventStdout, stdoutPipe, &stdout, func() {
			firstChunk.Do(func() {
				if tracker != nil {
					tracker.UpdateProgress(50, "Receiving AI response...", 0, "")
				}
			})
		})
	}()
	go func() {
		defer wg.Done()
		g.relay(jobID, stream.EventStderr, stderrPipe, &stderr, nil)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("content generator failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	if tracker != nil {
		tracker.UpdateProgress(80, "Parsing tutorial content...", 0, "")
	}

	parsed, err := Parse(stdout.String())
	if err != nil {
		return nil, err
	}

	if tracker != nil {
		tracker.UpdateProgress(100, "Content generation complete", 0, "")
	}
	return parsed, nil
}

// relay drains one output stream in small chunks, accumulating it and
// broadcasting each chunk to live subscribers.
func (g *Generator) relay(jobID string, eventType stream.EventType, r io.Reader, sink *bytes.Buffer, onData func()) {
	buf := make([]byte, 1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			sink.Write(buf[:n])
			if jobID != "" {
				g.hub.Broadcast(jobID, eventType, string(buf[:n]))
			}
			if onData != nil {
				onData()
			}
		}
		if err != nil {
			return
		}
	}
}
