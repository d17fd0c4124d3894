package subtitles

import (
	"strings"

	"clipbeat/internal/services/whisper"
)

// Split modes supported by the aligner.
const (
	SplitNone     = "none"
	SplitWord     = "word"
	SplitComma    = "comma"
	SplitSentence = "sentence"
)

// minCueGap keeps a visible boundary between consecutive cues.
const minCueGap = 0.08

// SplitSegments converts transcribed segments into cues at the requested
// granularity. Word mode prefers real per-word timings when the transcriber
// supplies them and falls back to proportional interpolation otherwise.
func SplitSegments(segments []whisper.Segment, mode string) []Cue {
	var cues []Cue
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" || seg.End <= seg.Start {
			continue
		}
		switch mode {
		case SplitWord:
			cues = append(cues, splitWords(seg)...)
		case SplitComma:
			cues = append(cues, splitOn(seg, text, ",")...)
		case SplitSentence:
			cues = append(cues, splitSentences(seg, text)...)
		default:
			start, end := wordSpan(seg)
			cues = append(cues, NewCue(start, end, text))
		}
	}
	// Word cues tile their phrase interval exactly, so only overlap is
	// clamped; phrase-level cues also keep a visible gap on screen.
	gap := minCueGap
	if mode == SplitWord {
		gap = 0
	}
	return clampGaps(cues, gap)
}

// splitWords emits one cue per token. Real word timings win; without them the
// phrase interval is divided proportionally to token character length.
func splitWords(seg whisper.Segment) []Cue {
	if cues := wordsFromTimings(seg); cues != nil {
		return cues
	}
	tokens := strings.Fields(seg.Text)
	spans := make([]string, len(tokens))
	copy(spans, tokens)
	cues := distribute(seg.Start, seg.End, spans)
	for i := range cues {
		cues[i].WordIndex = i
	}
	return cues
}

func wordsFromTimings(seg whisper.Segment) []Cue {
	if len(seg.Words) == 0 {
		return nil
	}
	var cues []Cue
	for _, word := range seg.Words {
		text := strings.TrimSpace(word.Word)
		if text == "" || word.End <= word.Start {
			return nil // incomplete timings, fall back to interpolation
		}
		cue := NewCue(word.Start, word.End, text)
		cue.WordIndex = len(cues)
		cues = append(cues, cue)
	}
	return cues
}

// wordSpan tightens a segment interval to its word timings when they are
// present and usable. Transcribers pad phrase bounds with leading and
// trailing silence; the words carry the actually-spoken interval.
func wordSpan(seg whisper.Segment) (float64, float64) {
	if len(seg.Words) == 0 {
		return seg.Start, seg.End
	}
	start := seg.Words[0].Start
	end := seg.Words[len(seg.Words)-1].End
	if end <= start {
		return seg.Start, seg.End
	}
	return start, end
}

func splitOn(seg whisper.Segment, text, separator string) []Cue {
	parts := strings.Split(text, separator)
	var spans []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			spans = append(spans, trimmed)
		}
	}
	start, end := wordSpan(seg)
	return distribute(start, end, spans)
}

func splitSentences(seg whisper.Segment, text string) []Cue {
	var spans []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
				spans = append(spans, trimmed)
			}
			current.Reset()
		}
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		spans = append(spans, trimmed)
	}
	start, end := wordSpan(seg)
	return distribute(start, end, spans)
}

// distribute divides [start, end) across the spans proportional to their
// character length, so longer spans hold the screen longer.
func distribute(start, end float64, spans []string) []Cue {
	if len(spans) == 0 {
		return nil
	}
	total := 0
	for _, span := range spans {
		total += len(span)
	}
	if total == 0 {
		return nil
	}

	duration := end - start
	cues := make([]Cue, 0, len(spans))
	cursor := start
	for i, span := range spans {
		spanEnd := cursor + duration*float64(len(span))/float64(total)
		if i == len(spans)-1 {
			spanEnd = end // absorb rounding so spans partition the interval
		}
		cues = append(cues, NewCue(cursor, spanEnd, span))
		cursor = spanEnd
	}
	return cues
}

// clampGaps trims each cue so it ends at least gap before its successor
// starts, dropping cues the clamp would invert.
func clampGaps(cues []Cue, gap float64) []Cue {
	clamped := cues[:0]
	for i, cue := range cues {
		if i+1 < len(cues) {
			limit := cues[i+1].Start - gap
			if cue.End > limit {
				cue.End = limit
			}
		}
		if cue.End <= cue.Start {
			continue
		}
		clamped = append(clamped, cue)
	}
	return clamped
}
