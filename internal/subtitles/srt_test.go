package subtitles

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipbeat/internal/services"
)

func TestParseSRTRoundTrip(t *testing.T) {
	cues := []Cue{
		NewCue(0.512, 2.048, "First line"),
		NewCue(2.5, 4.999, "Second line\nwith wrap"),
		NewCue(5.001, 7.25, "Third"),
	}
	path := filepath.Join(t.TempDir(), "cues.srt")
	if err := WriteSRT(path, cues); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}

	parsed, err := ParseSRT(path)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(parsed) != len(cues) {
		t.Fatalf("got %d cues, want %d", len(parsed), len(cues))
	}
	for i := range cues {
		if math.Abs(parsed[i].Start-cues[i].Start) > 0.001 {
			t.Fatalf("cue %d start drifted: %f vs %f", i, parsed[i].Start, cues[i].Start)
		}
		if math.Abs(parsed[i].End-cues[i].End) > 0.001 {
			t.Fatalf("cue %d end drifted: %f vs %f", i, parsed[i].End, cues[i].End)
		}
		if parsed[i].Text != cues[i].Text {
			t.Fatalf("cue %d text = %q, want %q", i, parsed[i].Text, cues[i].Text)
		}
	}
}

func TestFormatSRTTimestamps(t *testing.T) {
	got := FormatSRT([]Cue{NewCue(3661.5, 3723.042, "Over an hour in")})
	if !strings.Contains(got, "01:01:01,500 --> 01:02:03,042") {
		t.Fatalf("unexpected timing line in %q", got)
	}
	if !strings.HasPrefix(got, "1\n") {
		t.Fatalf("missing index line in %q", got)
	}
}

func TestParseSRTOverlappingCues(t *testing.T) {
	content := "1\n00:00:00,000 --> 00:00:03,000\nFirst\n\n2\n00:00:02,000 --> 00:00:04,000\nOverlaps\n"
	path := filepath.Join(t.TempDir(), "overlap.srt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ParseSRT(path)
	if !errors.Is(err, services.ErrMalformedSubtitle) {
		t.Fatalf("want ErrMalformedSubtitle, got %v", err)
	}
}

func TestParseSRTBadTimingLine(t *testing.T) {
	content := "1\n00:00:00,000 -> 00:00:03,000\nBroken arrow\n"
	path := filepath.Join(t.TempDir(), "bad.srt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ParseSRT(path)
	if !errors.Is(err, services.ErrMalformedSubtitle) {
		t.Fatalf("want ErrMalformedSubtitle, got %v", err)
	}
}

func TestParseSRTWithoutIndexLines(t *testing.T) {
	content := "00:00:00,000 --> 00:00:01,000\nNo index here\n\n00:00:01,500 --> 00:00:02,500\nStill parses\n"
	path := filepath.Join(t.TempDir(), "noindex.srt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cues, err := ParseSRT(path)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(cues) != 2 || cues[0].Text != "No index here" {
		t.Fatalf("unexpected cues: %+v", cues)
	}
}

func TestValidateRejectsEmptyTextAndInversion(t *testing.T) {
	if err := Validate([]Cue{NewCue(0, 1, "  ")}); !errors.Is(err, services.ErrMalformedSubtitle) {
		t.Fatalf("empty text: want ErrMalformedSubtitle, got %v", err)
	}
	if err := Validate([]Cue{NewCue(2, 1, "backwards")}); !errors.Is(err, services.ErrMalformedSubtitle) {
		t.Fatalf("inverted: want ErrMalformedSubtitle, got %v", err)
	}
	if err := Validate([]Cue{NewCue(0, 1, "a"), NewCue(1, 2, "b")}); err != nil {
		t.Fatalf("touching cues should pass: %v", err)
	}
}
