// Package beats turns raw onset detections into a validated beat timeline.
package beats

import (
	"context"
	"fmt"
	"sort"

	"clipbeat/internal/services"
)

// Detector produces raw beat timestamps for an audio file.
type Detector interface {
	DetectBeats(ctx context.Context, audioPath string, sensitivity float64) ([]float64, error)
}

// Timeline is a strictly increasing sequence of beat timestamps in seconds,
// bounded by the audio duration.
type Timeline struct {
	Beats    []float64
	Duration float64
}

// Analyze runs the detector and normalizes its output: timestamps are sorted,
// deduplicated, and clipped to [0, duration]. Fewer than two surviving beats
// means the audio has no usable rhythm.
func Analyze(ctx context.Context, detector Detector, audioPath string, sensitivity, duration float64) (Timeline, error) {
	var timeline Timeline

	if duration <= 0 {
		return timeline, services.Wrap(services.ErrValidation, "beat", "analyze", "audio duration required", nil)
	}

	raw, err := detector.DetectBeats(ctx, audioPath, sensitivity)
	if err != nil {
		return timeline, err
	}

	beats := normalize(raw, duration)
	if len(beats) < 2 {
		return timeline, services.Wrap(services.ErrAnalysis, "beat", "analyze",
			fmt.Sprintf("only %d usable beats detected", len(beats)), nil)
	}

	timeline.Beats = beats
	timeline.Duration = duration
	return timeline, nil
}

// normalize sorts the timestamps, drops anything outside [0, duration], and
// collapses duplicates so the result is strictly increasing.
func normalize(raw []float64, duration float64) []float64 {
	sorted := make([]float64, 0, len(raw))
	for _, beat := range raw {
		if beat < 0 || beat > duration {
			continue
		}
		sorted = append(sorted, beat)
	}
	sort.Float64s(sorted)

	beats := sorted[:0]
	for _, beat := range sorted {
		if len(beats) > 0 && beat <= beats[len(beats)-1] {
			continue
		}
		beats = append(beats, beat)
	}
	return beats
}

// Interval returns the mean spacing between consecutive beats.
func (t Timeline) Interval() float64 {
	if len(t.Beats) < 2 {
		return 0
	}
	return (t.Beats[len(t.Beats)-1] - t.Beats[0]) / float64(len(t.Beats)-1)
}
