// Package segment converts a beat timeline into a contiguous cut plan with
// clip trim windows assigned to every segment.
package segment

import (
	"fmt"

	"clipbeat/internal/beats"
	"clipbeat/internal/services"
)

// Reuse policies for clips shorter than their remaining assignment.
const (
	// ReuseLoop wraps a clip to its own start when it runs out of footage.
	ReuseLoop = "loop"
	// ReuseStrict fails planning instead of silently looping footage.
	ReuseStrict = "strict"
)

// Clip is one source video in the ordered pool.
type Clip struct {
	Path     string
	Duration float64
}

// ClipRef is a trim window within a single source video. Loop marks windows
// that extend past the source end and must be played looped.
type ClipRef struct {
	Source string
	In     float64
	Out    float64
	Loop   bool
}

// Segment is one cut window of the final timeline bound to a clip window.
type Segment struct {
	Index int
	Start float64
	End   float64
	Clip  ClipRef
}

// Length returns the segment duration in seconds.
func (s Segment) Length() float64 {
	return s.End - s.Start
}

// Plan cuts the timeline on every beatsPerCut-th beat and assigns clips
// round-robin. Segments are contiguous and cover [0, totalDuration) exactly.
func Plan(timeline beats.Timeline, beatsPerCut int, clips []Clip, totalDuration float64, reuse string) ([]Segment, error) {
	if totalDuration <= 0 {
		return nil, services.Wrap(services.ErrPlanning, "plan", "boundaries", "total duration must be positive", nil)
	}
	if beatsPerCut < 1 {
		return nil, services.Wrap(services.ErrPlanning, "plan", "boundaries", "beats per cut must be at least 1", nil)
	}
	if len(clips) == 0 {
		return nil, services.Wrap(services.ErrPlanning, "plan", "assign", "clip pool is empty", nil)
	}
	for _, clip := range clips {
		if clip.Duration <= 0 {
			return nil, services.Wrap(services.ErrPlanning, "plan", "assign",
				fmt.Sprintf("clip %s has zero duration", clip.Path), nil)
		}
	}

	boundaries := cutBoundaries(timeline.Beats, beatsPerCut, totalDuration)
	segments := make([]Segment, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		segments = append(segments, Segment{
			Index: i,
			Start: boundaries[i],
			End:   boundaries[i+1],
		})
	}

	if err := assignClips(segments, clips, reuse); err != nil {
		return nil, err
	}
	return segments, nil
}

// cutBoundaries selects every beatsPerCut-th beat, always including 0 and
// totalDuration. Beats at or past totalDuration are discarded.
func cutBoundaries(beats []float64, beatsPerCut int, totalDuration float64) []float64 {
	boundaries := []float64{0}
	for i := 0; i < len(beats); i += beatsPerCut {
		beat := beats[i]
		if beat <= boundaries[len(boundaries)-1] {
			continue
		}
		if beat >= totalDuration {
			break
		}
		boundaries = append(boundaries, beat)
	}
	boundaries = append(boundaries, totalDuration)
	return boundaries
}

// assignClips walks the segments in order, cycling through the clip pool.
// Each clip keeps a per-source cursor that advances on every reuse.
func assignClips(segments []Segment, clips []Clip, reuse string) error {
	cursors := make([]float64, len(clips))
	for i := range segments {
		clipIndex := i % len(clips)
		clip := clips[clipIndex]
		length := segments[i].Length()

		in := cursors[clipIndex]
		loop := false
		if in+length > clip.Duration {
			if reuse == ReuseStrict {
				return services.Wrap(services.ErrPlanning, "plan", "assign",
					fmt.Sprintf("clip %s exhausted at segment %d", clip.Path, i), nil)
			}
			in = 0
			loop = length > clip.Duration
		}

		segments[i].Clip = ClipRef{
			Source: clip.Path,
			In:     in,
			Out:    in + length,
			Loop:   loop,
		}
		cursors[clipIndex] = in + length
	}
	return nil
}
