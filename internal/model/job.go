package model

import (
	"errors"
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of a generation job
type JobStatus string

const (
	StatusPending           JobStatus = "pending"
	StatusGeneratingContent JobStatus = "generating_content"
	StatusGeneratingAudio   JobStatus = "generating_audio"
	StatusRendering         JobStatus = "rendering"
	StatusCompleted         JobStatus = "completed"
	StatusError             JobStatus = "error"
)

// IsTerminal reports whether no further transition may leave the status
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// StyleLevel controls how demanding the generated tutorial is
type StyleLevel string

const (
	StyleBeginner     StyleLevel = "beginner"
	StyleIntermediate StyleLevel = "intermediate"
	StyleAdvanced     StyleLevel = "advanced"
)

// TutorialStep is one code snippet plus its narration text
type TutorialStep struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
	Language    string `json:"language"`
}

// TutorialContent is the structured output of the content stage
type TutorialContent struct {
	Title string         `json:"title"`
	Steps []TutorialStep `json:"steps"`
}

// LogEntry is one timestamped progress log line
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// ProgressDetails is the mutable status snapshot of the active phase
type ProgressDetails struct {
	CurrentAction  string     `json:"currentAction"`
	SubProgress    float64    `json:"subProgress"`
	CurrentStep    int        `json:"currentStep,omitempty"`
	TotalSteps     int        `json:"totalSteps,omitempty"`
	PhaseStartedAt time.Time  `json:"phaseStartedAt"`
	Logs           []LogEntry `json:"logs"`
}

// Job is one end-to-end generation run for a single request
type Job struct {
	ID         string           `json:"id"`
	Status     JobStatus        `json:"status"`
	Prompt     string           `json:"prompt"`
	Language   string           `json:"language"`
	Style      StyleLevel       `json:"style"`
	VoiceSpeed float64          `json:"voiceSpeed"`
	WebhookURL string           `json:"webhookUrl,omitempty"`
	Content    *TutorialContent `json:"content,omitempty"`
	AudioFiles []string         `json:"audioFiles,omitempty"`
	VideoPath  string           `json:"videoPath,omitempty"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	Progress   *ProgressDetails `json:"progress,omitempty"`
}

// GenerateRequest is the payload accepted by the generate and preview endpoints
type GenerateRequest struct {
	Prompt     string     `json:"prompt"`
	Language   string     `json:"language,omitempty"`
	Style      StyleLevel `json:"style,omitempty"`
	VoiceSpeed float64    `json:"voiceSpeed,omitempty"`
	WebhookURL string     `json:"webhookUrl,omitempty"`
}

// Validate validates the generation request and fills defaults
func (r *GenerateRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("prompt is required")
	}
	if r.Language == "" {
		r.Language = "javascript"
	}
	switch r.Style {
	case StyleBeginner, StyleIntermediate, StyleAdvanced:
	case "":
		r.Style = StyleBeginner
	default:
		return errors.New("style must be 'beginner', 'intermediate', or 'advanced'")
	}
	if r.VoiceSpeed == 0 {
		r.VoiceSpeed = 1.0
	}
	if r.VoiceSpeed < 0.5 || r.VoiceSpeed > 2.0 {
		return errors.New("voiceSpeed must be between 0.5 and 2.0")
	}
	return nil
}

// Clone returns a deep copy safe to hand to readers while the
// orchestrator keeps mutating the original.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Content != nil {
		content := *j.Content
		content.Steps = append([]TutorialStep(nil), j.Content.Steps...)
		out.Content = &content
	}
	out.AudioFiles = append([]string(nil), j.AudioFiles...)
	if j.Progress != nil {
		progress := *j.Progress
		progress.Logs = append([]LogEntry(nil), j.Progress.Logs...)
		out.Progress = &progress
	}
	return &out
}
