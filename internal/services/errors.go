package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks job specs rejected before any stage starts.
	ErrValidation = errors.New("validation error")
	// ErrAnalysis marks beat-detection or transcription failures.
	ErrAnalysis = errors.New("analysis error")
	// ErrPlanning marks segment plans that cannot be built.
	ErrPlanning = errors.New("planning error")
	// ErrMalformedSubtitle marks supplied subtitle files that fail validation.
	ErrMalformedSubtitle = errors.New("malformed subtitle")
	// ErrRender marks external render-stage failures.
	ErrRender = errors.New("render error")
	// ErrNotReady marks results polled before the task reached a terminal state.
	ErrNotReady = errors.New("not ready")
	// ErrExternalTool marks unexpected external process failures.
	ErrExternalTool = errors.New("external tool error")
	// ErrConfiguration marks missing or inconsistent wiring.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatalForTask reports whether an error should fail the task outright.
// Everything except ErrNotReady is fatal; NotReady is a polling condition.
func IsFatalForTask(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotReady)
}

// Message extracts a human-readable message suitable for progress events,
// trimming the sentinel prefix when present.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := strings.TrimSpace(err.Error())
	for _, marker := range []error{
		ErrValidation, ErrAnalysis, ErrPlanning, ErrMalformedSubtitle,
		ErrRender, ErrNotReady, ErrExternalTool, ErrConfiguration,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return text
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
