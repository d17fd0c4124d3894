package subtitles

import (
	"math"
	"testing"

	"clipbeat/internal/services/whisper"
)

func TestSplitNoneKeepsPhrases(t *testing.T) {
	segments := []whisper.Segment{
		{Text: " Hello world", Start: 0, End: 2},
		{Text: " Second phrase", Start: 3, End: 5},
	}
	cues := SplitSegments(segments, SplitNone)
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Text != "Hello world" || cues[1].Text != "Second phrase" {
		t.Fatalf("unexpected texts: %+v", cues)
	}
	if cues[0].WordIndex != -1 {
		t.Fatalf("phrase cue should carry no word index")
	}
}

func TestSplitWordProportionalPartition(t *testing.T) {
	seg := whisper.Segment{Text: "go gopher golang", Start: 1.0, End: 4.0}
	cues := SplitSegments([]whisper.Segment{seg}, SplitWord)
	if len(cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(cues))
	}
	// Longer tokens hold longer: "gopher" (6 chars) outlasts "go" (2 chars).
	if cues[1].End-cues[1].Start <= cues[0].End-cues[0].Start {
		t.Fatalf("proportional split broken: %+v", cues)
	}
	// Word cues tile the phrase interval exactly.
	if cues[0].Start != 1.0 || math.Abs(cues[2].End-4.0) > 1e-9 {
		t.Fatalf("partition bounds wrong: %+v", cues)
	}
	for i := 1; i < len(cues); i++ {
		if math.Abs(cues[i].Start-cues[i-1].End) > 1e-9 {
			t.Fatalf("gap between word cues %d and %d: %+v", i-1, i, cues)
		}
	}
	for i, cue := range cues {
		if cue.WordIndex != i {
			t.Fatalf("word index %d = %d", i, cue.WordIndex)
		}
	}
}

func TestSplitWordPrefersRealTimings(t *testing.T) {
	seg := whisper.Segment{
		Text:  "hello world",
		Start: 0, End: 2,
		Words: []whisper.Word{
			{Word: " hello", Start: 0.1, End: 0.6},
			{Word: " world", Start: 0.9, End: 1.8},
		},
	}
	cues := SplitSegments([]whisper.Segment{seg}, SplitWord)
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Start != 0.1 || cues[0].End != 0.6 {
		t.Fatalf("real timing not used: %+v", cues[0])
	}
	if cues[1].Text != "world" {
		t.Fatalf("word text not trimmed: %q", cues[1].Text)
	}
}

func TestSplitWordFallsBackOnIncompleteTimings(t *testing.T) {
	seg := whisper.Segment{
		Text:  "hello world",
		Start: 0, End: 2,
		Words: []whisper.Word{
			{Word: " hello", Start: 0.5, End: 0.5}, // zero-length timing
			{Word: " world", Start: 0.9, End: 1.8},
		},
	}
	cues := SplitSegments([]whisper.Segment{seg}, SplitWord)
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	// Interpolation starts at the phrase start, not the bad word timing.
	if cues[0].Start != 0 {
		t.Fatalf("fallback not taken: %+v", cues)
	}
}

func TestSplitCommaRedistributesTime(t *testing.T) {
	seg := whisper.Segment{Text: "short, a considerably longer clause", Start: 0, End: 10}
	cues := SplitSegments([]whisper.Segment{seg}, SplitComma)
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[1].End-cues[1].Start <= cues[0].End-cues[0].Start {
		t.Fatalf("longer clause should hold longer: %+v", cues)
	}
	if math.Abs(cues[1].End-10) > 1e-9 {
		t.Fatalf("last cue must end at phrase end: %+v", cues[1])
	}
}

func TestSplitSentenceBreaksOnTerminators(t *testing.T) {
	seg := whisper.Segment{Text: "First one. Second one! Third one?", Start: 0, End: 9}
	cues := SplitSegments([]whisper.Segment{seg}, SplitSentence)
	if len(cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(cues))
	}
	if cues[0].Text != "First one." || cues[2].Text != "Third one?" {
		t.Fatalf("unexpected sentences: %+v", cues)
	}
}

func TestClampGapsKeepsVisibleBoundary(t *testing.T) {
	segments := []whisper.Segment{
		{Text: "touching one", Start: 0, End: 2.0},
		{Text: "touching two", Start: 2.0, End: 4.0},
	}
	cues := SplitSegments(segments, SplitNone)
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if got := cues[1].Start - cues[0].End; got < minCueGap-1e-9 {
		t.Fatalf("gap %f below minimum %f", got, minCueGap)
	}
}

func TestSplitSkipsDegenerateSegments(t *testing.T) {
	segments := []whisper.Segment{
		{Text: "  ", Start: 0, End: 1},
		{Text: "inverted", Start: 5, End: 4},
		{Text: "kept", Start: 6, End: 7},
	}
	cues := SplitSegments(segments, SplitNone)
	if len(cues) != 1 || cues[0].Text != "kept" {
		t.Fatalf("unexpected cues: %+v", cues)
	}
}

func TestSplitTightensPhraseBoundsToWordTimings(t *testing.T) {
	seg := whisper.Segment{
		Text:  "hello world",
		Start: 0, End: 3,
		Words: []whisper.Word{
			{Word: " hello", Start: 0.8, End: 1.4},
			{Word: " world", Start: 1.5, End: 2.1},
		},
	}

	cues := SplitSegments([]whisper.Segment{seg}, SplitNone)
	if len(cues) != 1 {
		t.Fatalf("got %d cues, want 1", len(cues))
	}
	if cues[0].Start != 0.8 || cues[0].End != 2.1 {
		t.Fatalf("phrase bounds [%v, %v), want spoken interval [0.8, 2.1)", cues[0].Start, cues[0].End)
	}

	commaSeg := whisper.Segment{
		Text:  "one, two",
		Start: 0, End: 3,
		Words: []whisper.Word{
			{Word: " one", Start: 0.8, End: 1.2},
			{Word: " two", Start: 1.6, End: 2.1},
		},
	}
	commaCues := SplitSegments([]whisper.Segment{commaSeg}, SplitComma)
	if len(commaCues) != 2 {
		t.Fatalf("got %d comma cues, want 2", len(commaCues))
	}
	if commaCues[0].Start != 0.8 || math.Abs(commaCues[1].End-2.1) > 1e-9 {
		t.Fatalf("comma cues span [%v, %v), want [0.8, 2.1)", commaCues[0].Start, commaCues[1].End)
	}
}

func TestSplitIgnoresUnusableWordTimings(t *testing.T) {
	seg := whisper.Segment{
		Text:  "hello world",
		Start: 1, End: 3,
		Words: []whisper.Word{
			{Word: " hello", Start: 0, End: 0},
			{Word: " world", Start: 0, End: 0},
		},
	}
	cues := SplitSegments([]whisper.Segment{seg}, SplitNone)
	if len(cues) != 1 {
		t.Fatalf("got %d cues, want 1", len(cues))
	}
	if cues[0].Start != 1 || cues[0].End != 3 {
		t.Fatalf("expected segment bounds to survive zeroed timings: %+v", cues[0])
	}
}
