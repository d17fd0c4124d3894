package subtitles

import (
	"context"

	"clipbeat/internal/services"
	"clipbeat/internal/services/whisper"
)

// Transcriber produces timed segments for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir string) (whisper.Result, error)
}

// Aligner turns audio (or a pre-supplied subtitle file) into validated cues.
type Aligner struct {
	transcriber Transcriber
	splitMode   string
}

// NewAligner builds an aligner using the given transcriber and split mode.
func NewAligner(transcriber Transcriber, splitMode string) *Aligner {
	if splitMode == "" {
		splitMode = SplitNone
	}
	return &Aligner{transcriber: transcriber, splitMode: splitMode}
}

// Align transcribes the audio and splits it into cues. workDir receives the
// transcriber's intermediate files.
func (a *Aligner) Align(ctx context.Context, audioPath, workDir string) ([]Cue, error) {
	result, err := a.transcriber.Transcribe(ctx, audioPath, workDir)
	if err != nil {
		return nil, err
	}
	cues := SplitSegments(result.Segments, a.splitMode)
	if len(cues) == 0 {
		return nil, services.Wrap(services.ErrAnalysis, "subtitle", "align", "transcription produced no cues", nil)
	}
	if err := Validate(cues); err != nil {
		return nil, err
	}
	return cues, nil
}

// LoadSupplied parses a caller-provided subtitle file, enforcing the same
// invariants transcription output must satisfy. Transcription is skipped
// entirely when this path is taken.
func LoadSupplied(path string) ([]Cue, error) {
	cues, err := ParseSRT(path)
	if err != nil {
		return nil, err
	}
	if len(cues) == 0 {
		return nil, services.Wrap(services.ErrMalformedSubtitle, "subtitle", "load", "subtitle file has no cues", nil)
	}
	return cues, nil
}
