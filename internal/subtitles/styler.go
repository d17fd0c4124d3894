package subtitles

import (
	"strings"
	"unicode"
)

// Style is the immutable per-job rendering configuration.
type Style struct {
	Width        int
	Height       int
	FPS          int
	FontName     string
	FontSize     int
	AutoFit      bool
	FontColor    string
	OutlineColor string
	WordByWord   bool
}

const (
	// minFontSize is the auto-fit floor; below it text is unreadable anyway
	// and overflow is accepted.
	minFontSize = 6

	// minSideMargin keeps text off the canvas edges on narrow canvases.
	minSideMargin = 64
)

// ApplyStyle resolves a font size for every cue. Word-by-word mode first
// re-expresses phrase cues as one cue per word. With auto-fit disabled each
// cue gets the ceiling verbatim. The result is a stable fixed point: styling
// already-styled cues again yields identical sizes.
func ApplyStyle(cues []Cue, style Style) []Cue {
	if style.WordByWord {
		cues = expandWords(cues)
	}
	styled := make([]Cue, len(cues))
	for i, cue := range cues {
		cue.FontSize = style.FontSize
		if style.AutoFit {
			cue.FontSize = fitFontSize(cue.Text, style)
		}
		styled[i] = cue
	}
	return styled
}

// expandWords splits phrase cues into per-word cues, dividing each phrase
// interval proportionally to word length. Cues that already carry a word
// index pass through unchanged, so aligner-produced word cues keep their
// real timings and repeated styling is stable.
func expandWords(cues []Cue) []Cue {
	out := make([]Cue, 0, len(cues))
	for _, cue := range cues {
		if cue.WordIndex >= 0 {
			out = append(out, cue)
			continue
		}
		words := distribute(cue.Start, cue.End, strings.Fields(cue.Text))
		for i := range words {
			words[i].WordIndex = i
		}
		out = append(out, words...)
	}
	return out
}

// fitFontSize shrinks the font from the ceiling one point at a time until
// the estimated line width fits the usable canvas width, stopping at the
// floor even if the text still overflows.
func fitFontSize(text string, style Style) int {
	usable := float64(style.Width) - 2*sideMargin(style.Width)
	units := textWidthUnits(text)

	size := style.FontSize
	for size > minFontSize && units*float64(size) > usable {
		size--
	}
	return size
}

func sideMargin(width int) float64 {
	margin := 0.08 * float64(width)
	if margin < minSideMargin {
		return minSideMargin
	}
	return margin
}

// textWidthUnits estimates rendered width in font-size multiples using a
// coarse per-glyph width table. It only has to be consistent, not exact.
func textWidthUnits(text string) float64 {
	var units float64
	for _, r := range text {
		units += runeWidthUnits(r)
	}
	return units
}

func runeWidthUnits(r rune) float64 {
	switch {
	case r == 'M' || r == 'W' || r == '@' || r == '#' || r == '%' || r == '&' || r == '=':
		return 1.0
	case unicode.IsUpper(r):
		return 0.78
	case unicode.IsLower(r) || unicode.IsDigit(r):
		return 0.62
	case r == ' ':
		return 0.34
	default:
		return 0.44
	}
}
