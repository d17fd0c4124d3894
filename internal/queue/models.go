package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a render task.
type Status string

const (
	StatusPending       Status = "pending"
	StatusTranscribing  Status = "transcribing"
	StatusTranscribed   Status = "transcribed"
	StatusBeatDetecting Status = "beat_detecting"
	StatusBeatsDetected Status = "beats_detected"
	StatusRendering     Status = "rendering"
	StatusRendered      Status = "rendered"
	StatusFinalizing    Status = "finalizing"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusCancelled     Status = "cancelled"
)

// CancelledMessage is the progress message set when a task is cancelled.
const CancelledMessage = "Cancelled by caller"

// ShutdownMessage is the error message set when in-flight tasks are failed
// because the controller stopped.
const ShutdownMessage = "Controller stopped"

var allStatuses = []Status{
	StatusPending,
	StatusTranscribing,
	StatusTranscribed,
	StatusBeatDetecting,
	StatusBeatsDetected,
	StatusRendering,
	StatusRendered,
	StatusFinalizing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusTranscribing:  {},
	StatusBeatDetecting: {},
	StatusRendering:     {},
	StatusFinalizing:    {},
}

// forwardTransitions is the closed transition table. Lifecycle flows strictly
// forward; failed and cancelled are reachable from every non-terminal state.
var forwardTransitions = map[Status][]Status{
	StatusPending:       {StatusTranscribing, StatusTranscribed},
	StatusTranscribing:  {StatusTranscribed},
	StatusTranscribed:   {StatusBeatDetecting},
	StatusBeatDetecting: {StatusBeatsDetected},
	StatusBeatsDetected: {StatusRendering},
	StatusRendering:     {StatusRendered},
	StatusRendered:      {StatusFinalizing},
	StatusFinalizing:    {StatusCompleted},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the task lifecycle.
func IsTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another. No state is ever re-entered.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}
	if to == StatusFailed || to == StatusCancelled {
		return !IsTerminal(from)
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Task is a render task persisted in SQLite.
type Task struct {
	ID              int64
	JobSpecJSON     string
	Status          Status
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	ArtifactPath    string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsProcessing returns true when the task is mid-stage.
func (t Task) IsProcessing() bool {
	return IsProcessingStatus(t.Status)
}

// IsTerminal returns true when the task reached a final state.
func (t Task) IsTerminal() bool {
	return IsTerminal(t.Status)
}

// SetProgress updates all three progress fields together.
func (t *Task) SetProgress(stage, message string, percent float64) {
	t.ProgressStage = stage
	t.ProgressMessage = message
	t.ProgressPercent = percent
}

// SetFailed marks the task failed with the given message.
func (t *Task) SetFailed(message string) {
	t.Status = StatusFailed
	t.ErrorMessage = message
	t.ProgressStage = "error"
	t.ProgressPercent = 0
	t.ProgressMessage = message
}

// SetCancelled marks the task cancelled.
func (t *Task) SetCancelled() {
	t.Status = StatusCancelled
	t.ProgressStage = "cancelled"
	t.ProgressPercent = 0
	t.ProgressMessage = CancelledMessage
}

// HealthSummary describes aggregated task counts per lifecycle group.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
	Cancelled  int
}
