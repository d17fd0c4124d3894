package subtitles

import (
	"fmt"
	"strings"

	"clipbeat/internal/services"
)

// Cue is one subtitle display unit.
type Cue struct {
	Start float64
	End   float64
	Text  string
	// WordIndex is the position within the parent phrase under word-by-word
	// splitting, -1 otherwise.
	WordIndex int
	// FontSize is resolved by the styler; zero means unstyled.
	FontSize int
}

// NewCue builds an unstyled phrase-level cue.
func NewCue(start, end float64, text string) Cue {
	return Cue{Start: start, End: end, Text: text, WordIndex: -1}
}

// Validate enforces the cue sequence invariants: positive duration per cue,
// ordering by start time, and no overlap between consecutive cues.
func Validate(cues []Cue) error {
	for i, cue := range cues {
		if strings.TrimSpace(cue.Text) == "" {
			return services.Wrap(services.ErrMalformedSubtitle, "subtitle", "validate",
				fmt.Sprintf("cue %d has empty text", i+1), nil)
		}
		if cue.Start < 0 {
			return services.Wrap(services.ErrMalformedSubtitle, "subtitle", "validate",
				fmt.Sprintf("cue %d starts before zero", i+1), nil)
		}
		if cue.End <= cue.Start {
			return services.Wrap(services.ErrMalformedSubtitle, "subtitle", "validate",
				fmt.Sprintf("cue %d has non-positive duration", i+1), nil)
		}
		if i > 0 {
			prev := cues[i-1]
			if cue.Start < prev.Start {
				return services.Wrap(services.ErrMalformedSubtitle, "subtitle", "validate",
					fmt.Sprintf("cue %d out of order", i+1), nil)
			}
			if cue.Start < prev.End {
				return services.Wrap(services.ErrMalformedSubtitle, "subtitle", "validate",
					fmt.Sprintf("cue %d overlaps cue %d", i+1, i), nil)
			}
		}
	}
	return nil
}
