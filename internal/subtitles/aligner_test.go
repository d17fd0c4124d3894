package subtitles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clipbeat/internal/services"
	"clipbeat/internal/services/whisper"
)

type stubTranscriber struct {
	segments []whisper.Segment
	err      error
}

func (s stubTranscriber) Transcribe(ctx context.Context, source, outputDir string) (whisper.Result, error) {
	return whisper.Result{Segments: s.segments}, s.err
}

func TestAlignProducesValidatedCues(t *testing.T) {
	aligner := NewAligner(stubTranscriber{segments: []whisper.Segment{
		{Text: " One", Start: 0, End: 1},
		{Text: " Two", Start: 1.5, End: 2.5},
	}}, SplitNone)

	cues, err := aligner.Align(context.Background(), "/media/track.mp3", t.TempDir())
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if err := Validate(cues); err != nil {
		t.Fatalf("aligned cues invalid: %v", err)
	}
}

func TestAlignEmptyTranscript(t *testing.T) {
	aligner := NewAligner(stubTranscriber{}, SplitNone)
	_, err := aligner.Align(context.Background(), "/media/track.mp3", t.TempDir())
	if !errors.Is(err, services.ErrAnalysis) {
		t.Fatalf("want ErrAnalysis, got %v", err)
	}
}

func TestAlignPropagatesTranscriberError(t *testing.T) {
	boom := services.Wrap(services.ErrAnalysis, "whisper", "transcribe", "whisper failed", errors.New("exit status 1"))
	aligner := NewAligner(stubTranscriber{err: boom}, SplitWord)
	_, err := aligner.Align(context.Background(), "/media/track.mp3", t.TempDir())
	if !errors.Is(err, services.ErrAnalysis) {
		t.Fatalf("want ErrAnalysis, got %v", err)
	}
}

func TestLoadSuppliedValidates(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.srt")
	if err := os.WriteFile(good, []byte("1\n00:00:00,000 --> 00:00:01,000\nFine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cues, err := LoadSupplied(good)
	if err != nil {
		t.Fatalf("LoadSupplied: %v", err)
	}
	if len(cues) != 1 {
		t.Fatalf("got %d cues, want 1", len(cues))
	}

	overlapping := filepath.Join(dir, "overlap.srt")
	content := "1\n00:00:00,000 --> 00:00:03,000\nFirst\n\n2\n00:00:02,000 --> 00:00:04,000\nSecond\n"
	if err := os.WriteFile(overlapping, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSupplied(overlapping); !errors.Is(err, services.ErrMalformedSubtitle) {
		t.Fatalf("want ErrMalformedSubtitle, got %v", err)
	}

	empty := filepath.Join(dir, "empty.srt")
	if err := os.WriteFile(empty, []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSupplied(empty); !errors.Is(err, services.ErrMalformedSubtitle) {
		t.Fatalf("empty file: want ErrMalformedSubtitle, got %v", err)
	}
}
