package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clipbeat/internal/media/ffmpeg"
	"clipbeat/internal/segment"
	"clipbeat/internal/services"
	"clipbeat/internal/subtitles"
)

func testJob(t *testing.T) Job {
	t.Helper()
	workDir := t.TempDir()
	return Job{
		Segments: []segment.Segment{
			{Index: 0, Start: 0, End: 2, Clip: segment.ClipRef{Source: "/clips/a.mp4", In: 0, Out: 2}},
			{Index: 1, Start: 2, End: 4, Clip: segment.ClipRef{Source: "/clips/b.mp4", In: 1, Out: 3}},
		},
		Cues: []subtitles.Cue{
			{Start: 0.5, End: 1.5, Text: "Hello", WordIndex: -1, FontSize: 18},
		},
		Style: subtitles.Style{
			Width: 1080, Height: 1920, FPS: 30,
			FontName: "Arial", FontSize: 18,
			FontColor: "&H00FFFFFF", OutlineColor: "&H00000000",
		},
		AudioPath:     "/media/track.mp3",
		TotalDuration: 4,
		WorkDir:       workDir,
		OutputPath:    filepath.Join(workDir, "final.mp4"),
	}
}

// fakeRunner records every invocation and creates each destination file so
// later stages can consume it.
func fakeRunner(t *testing.T, calls *[][]string) func(ctx context.Context, name string, args ...string) error {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) error {
		*calls = append(*calls, args)
		dest := args[len(args)-1]
		return os.WriteFile(dest, []byte("media"), 0o644)
	}
}

func TestRenderRunsAllStagesInOrder(t *testing.T) {
	var calls [][]string
	runner := ffmpeg.NewRunner("").WithRunner(fakeRunner(t, &calls))
	orch := NewOrchestrator(Options{Runner: runner})
	job := testJob(t)

	var percents []int
	artifact, err := orch.Render(context.Background(), job, func(percent int, message string) {
		percents = append(percents, percent)
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if artifact != job.OutputPath {
		t.Fatalf("artifact = %q, want %q", artifact, job.OutputPath)
	}

	// Two extractions, then concat, mux, burn.
	if len(calls) != 5 {
		t.Fatalf("got %d invocations, want 5", len(calls))
	}
	if joined := strings.Join(calls[2], " "); !strings.Contains(joined, "-f concat") {
		t.Fatalf("third call should concat: %q", joined)
	}
	if joined := strings.Join(calls[3], " "); !strings.Contains(joined, "-map 1:a:0") {
		t.Fatalf("fourth call should mux audio: %q", joined)
	}
	if joined := strings.Join(calls[4], " "); !strings.Contains(joined, "subtitles=") {
		t.Fatalf("fifth call should burn subtitles: %q", joined)
	}

	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Fatalf("final percent = %d, want 100", percents[len(percents)-1])
	}

	// Temp dir is gone after a successful render.
	assertNoTempDirs(t, job.WorkDir)
}

func TestRenderStageFailure(t *testing.T) {
	var calls [][]string
	runner := ffmpeg.NewRunner("").WithRunner(func(ctx context.Context, name string, args ...string) error {
		calls = append(calls, args)
		if len(calls) == 3 { // concat stage
			return &ffmpeg.ExitError{ExitCode: 1, Stderr: "corrupt list"}
		}
		return os.WriteFile(args[len(args)-1], []byte("media"), 0o644)
	})
	orch := NewOrchestrator(Options{Runner: runner})
	job := testJob(t)

	_, err := orch.Render(context.Background(), job, nil)
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("want ErrRender, got %v", err)
	}
	var stageErr *Error
	if !errors.As(err, &stageErr) {
		t.Fatalf("want *render.Error, got %T", err)
	}
	if stageErr.Stage != StageConcat || stageErr.ExitCode != 1 || stageErr.Stderr != "corrupt list" {
		t.Fatalf("unexpected stage error: %+v", stageErr)
	}
	// Mux and burn never ran.
	if len(calls) != 3 {
		t.Fatalf("got %d invocations after failure, want 3", len(calls))
	}
	// No partial artifact.
	if _, statErr := os.Stat(job.OutputPath); !os.IsNotExist(statErr) {
		t.Fatalf("partial artifact published: %v", statErr)
	}
	assertNoTempDirs(t, job.WorkDir)
}

func TestRenderCancellationCleansUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	runner := ffmpeg.NewRunner("").WithRunner(func(ctx context.Context, name string, args ...string) error {
		calls++
		if calls == 2 {
			cancel()
			return ctx.Err()
		}
		return os.WriteFile(args[len(args)-1], []byte("media"), 0o644)
	})
	orch := NewOrchestrator(Options{Runner: runner})
	job := testJob(t)

	_, err := orch.Render(ctx, job, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if errors.Is(err, services.ErrRender) {
		t.Fatalf("cancellation must not surface as a render failure")
	}
	if _, statErr := os.Stat(job.OutputPath); !os.IsNotExist(statErr) {
		t.Fatal("artifact produced despite cancellation")
	}
	assertNoTempDirs(t, job.WorkDir)
}

func TestRenderKeepTempOnFailure(t *testing.T) {
	runner := ffmpeg.NewRunner("").WithRunner(func(ctx context.Context, name string, args ...string) error {
		return &ffmpeg.ExitError{ExitCode: 187, Stderr: "boom"}
	})
	orch := NewOrchestrator(Options{Runner: runner, KeepTempOnFailure: true})
	job := testJob(t)

	_, err := orch.Render(context.Background(), job, nil)
	if !errors.Is(err, services.ErrRender) {
		t.Fatalf("want ErrRender, got %v", err)
	}

	entries, readErr := os.ReadDir(job.WorkDir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	found := false
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "render-") {
			found = true
		}
	}
	if !found {
		t.Fatal("temp dir should survive failure with KeepTempOnFailure")
	}
}

func TestRenderWithoutCuesSkipsBurn(t *testing.T) {
	var calls [][]string
	runner := ffmpeg.NewRunner("").WithRunner(fakeRunner(t, &calls))
	orch := NewOrchestrator(Options{Runner: runner})
	job := testJob(t)
	job.Cues = nil

	artifact, err := orch.Render(context.Background(), job, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// Extract x2, concat, mux only.
	if len(calls) != 4 {
		t.Fatalf("got %d invocations, want 4", len(calls))
	}
	if _, statErr := os.Stat(artifact); statErr != nil {
		t.Fatalf("muxed video not promoted to artifact: %v", statErr)
	}
}

func TestBurnFontSizePicksSmallest(t *testing.T) {
	style := subtitles.Style{FontSize: 20}
	cues := []subtitles.Cue{{FontSize: 18}, {FontSize: 12}, {FontSize: 0}}
	if got := burnFontSize(cues, style); got != 12 {
		t.Fatalf("burnFontSize = %d, want 12", got)
	}
	if got := burnFontSize(nil, style); got != 20 {
		t.Fatalf("burnFontSize with no cues = %d, want ceiling", got)
	}
}

func assertNoTempDirs(t *testing.T, workDir string) {
	t.Helper()
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "render-") {
			t.Fatalf("leftover temp dir %s", entry.Name())
		}
	}
}
