package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipbeat/internal/config"
	"clipbeat/internal/media/ffmpeg"
	"clipbeat/internal/queue"
	"clipbeat/internal/render"
	"clipbeat/internal/services"
	"clipbeat/internal/services/whisper"
	"clipbeat/internal/subtitles"
	"clipbeat/internal/testsupport"
	"clipbeat/internal/workflow"
)

type stubProber struct {
	durations map[string]float64
}

func (p stubProber) Duration(ctx context.Context, path string) (float64, error) {
	if d, ok := p.durations[path]; ok {
		return d, nil
	}
	return 10, nil
}

type stubDetector struct {
	beats []float64
	err   error
}

func (d stubDetector) DetectBeats(ctx context.Context, audioPath string, sensitivity float64) ([]float64, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.beats, nil
}

type stubTranscriber struct {
	segments []whisper.Segment
}

func (s stubTranscriber) Transcribe(ctx context.Context, source, outputDir string) (whisper.Result, error) {
	return whisper.Result{Segments: s.segments}, nil
}

// blockingTranscriber holds its stage open until the task context dies.
type blockingTranscriber struct{}

func (blockingTranscriber) Transcribe(ctx context.Context, source, outputDir string) (whisper.Result, error) {
	<-ctx.Done()
	return whisper.Result{}, ctx.Err()
}

func evenBeats(duration, step float64) []float64 {
	var beats []float64
	for t := step; t < duration; t += step {
		beats = append(beats, t)
	}
	return beats
}

// testHarness bundles a manager wired with stubbed external tools.
type testHarness struct {
	cfg     *config.Config
	store   *queue.Store
	manager *workflow.Manager
}

func newHarness(t *testing.T, runner func(ctx context.Context, name string, args ...string) error) *testHarness {
	t.Helper()
	return newHarnessWithTranscriber(t, runner, stubTranscriber{segments: []whisper.Segment{
		{Text: "hello world", Start: 0.5, End: 2.0},
	}})
}

func newHarnessWithTranscriber(t *testing.T, runner func(ctx context.Context, name string, args ...string) error, transcriber subtitles.Transcriber) *testHarness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if runner == nil {
		runner = func(ctx context.Context, name string, args ...string) error {
			return os.WriteFile(args[len(args)-1], []byte("media"), 0o644)
		}
	}

	svcs := workflow.Services{
		NewTranscriber: func(model, language string) subtitles.Transcriber {
			return transcriber
		},
		Detector: stubDetector{beats: evenBeats(8, 0.5)},
		Prober:   stubProber{},
		Orchestrator: render.NewOrchestrator(render.Options{
			Runner: ffmpeg.NewRunner("").WithRunner(runner),
		}),
	}
	return &testHarness{
		cfg:     cfg,
		store:   store,
		manager: workflow.NewManager(cfg, store, nil, svcs),
	}
}

func (h *testHarness) start(t *testing.T) {
	t.Helper()
	if err := h.manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(h.manager.Stop)
}

func (h *testHarness) spec(t *testing.T) workflow.JobSpec {
	t.Helper()
	base := testsupport.BaseDir(h.cfg)
	clipA := filepath.Join(base, "clip-a.mp4")
	clipB := filepath.Join(base, "clip-b.mp4")
	audio := filepath.Join(base, "track.mp3")
	testsupport.WriteFile(t, clipA, 1024)
	testsupport.WriteFile(t, clipB, 1024)
	testsupport.WriteFile(t, audio, 1024)

	spec := workflow.NewJobSpec(h.cfg)
	spec.ClipPaths = []string{clipA, clipB}
	spec.AudioPath = audio
	spec.TotalDuration = 8
	return spec
}

func (h *testHarness) specWithSubtitle(t *testing.T) workflow.JobSpec {
	t.Helper()
	spec := h.spec(t)
	srt := filepath.Join(testsupport.BaseDir(h.cfg), "lyrics.srt")
	content := "1\n00:00:00,500 --> 00:00:02,000\nHello world\n\n" +
		"2\n00:00:02,500 --> 00:00:04,000\nSecond line\n\n"
	if err := os.WriteFile(srt, []byte(content), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}
	spec.SubtitlePath = srt
	return spec
}

// waitTerminal consumes the observer stream until its terminal event.
func waitTerminal(t *testing.T, manager *workflow.Manager, taskID int64) workflow.Event {
	t.Helper()
	ch, err := manager.Observe(context.Background(), taskID)
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	timeout := time.After(10 * time.Second)
	var last workflow.Event
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				if !last.Terminal() {
					t.Fatalf("stream closed without terminal event, last %+v", last)
				}
				return last
			}
			last = evt
		case <-timeout:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestSubmitRunsToCompletion(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)

	task, err := h.manager.Submit(context.Background(), h.specWithSubtitle(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final := waitTerminal(t, h.manager, task.ID)
	if final.Stage != workflow.EventStageDone {
		t.Fatalf("terminal stage = %q (%s), want done", final.Stage, final.Message)
	}

	stored, err := h.store.GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want completed", stored.Status)
	}
	if stored.ArtifactPath == "" {
		t.Fatal("artifact path not recorded")
	}
	if _, err := os.Stat(stored.ArtifactPath); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if !strings.HasPrefix(stored.ArtifactPath, h.cfg.Paths.OutputDir) {
		t.Fatalf("artifact %q not under output dir", stored.ArtifactPath)
	}

	artifact, err := h.manager.Result(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if artifact != stored.ArtifactPath {
		t.Fatalf("Result = %q, want %q", artifact, stored.ArtifactPath)
	}
}

func TestSubmitTranscribesWhenNoSubtitleSupplied(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)

	task, err := h.manager.Submit(context.Background(), h.spec(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	final := waitTerminal(t, h.manager, task.ID)
	if final.Stage != workflow.EventStageDone {
		t.Fatalf("terminal stage = %q (%s), want done", final.Stage, final.Message)
	}
}

func TestSubmitRejectsInvalidSpecSynchronously(t *testing.T) {
	h := newHarness(t, nil)

	spec := h.spec(t)
	spec.AudioPath = ""
	if _, err := h.manager.Submit(context.Background(), spec); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}

	tasks, err := h.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("rejected spec should not enqueue, got %d tasks", len(tasks))
	}
}

func TestCancelRunningTask(t *testing.T) {
	rendering := make(chan struct{})
	var once bool
	runner := func(ctx context.Context, name string, args ...string) error {
		if !once {
			once = true
			close(rendering)
		}
		<-ctx.Done()
		return ctx.Err()
	}
	h := newHarness(t, runner)
	h.start(t)

	task, err := h.manager.Submit(context.Background(), h.specWithSubtitle(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-rendering:
	case <-time.After(10 * time.Second):
		t.Fatal("render stage never started")
	}
	if err := h.manager.Cancel(context.Background(), task.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	final := waitTerminal(t, h.manager, task.ID)
	if final.Stage != workflow.EventStageCancelled {
		t.Fatalf("terminal stage = %q, want cancelled", final.Stage)
	}

	stored, err := h.store.GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", stored.Status)
	}

	if _, err := h.manager.Result(context.Background(), task.ID); !errors.Is(err, workflow.ErrCancelled) {
		t.Fatalf("Result err = %v, want ErrCancelled", err)
	}
}

func TestCancelPendingTask(t *testing.T) {
	h := newHarness(t, nil)
	// Manager not started, so the task stays pending.

	task, err := h.manager.Submit(context.Background(), h.specWithSubtitle(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := h.manager.Cancel(context.Background(), task.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	stored, err := h.store.GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", stored.Status)
	}

	final := waitTerminal(t, h.manager, task.ID)
	if final.Stage != workflow.EventStageCancelled {
		t.Fatalf("terminal stage = %q, want cancelled", final.Stage)
	}
}

func TestCancelTerminalTaskIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)

	task, err := h.manager.Submit(context.Background(), h.specWithSubtitle(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitTerminal(t, h.manager, task.ID)

	if err := h.manager.Cancel(context.Background(), task.ID); err != nil {
		t.Fatalf("Cancel after completion: %v", err)
	}
	stored, _ := h.store.GetByID(context.Background(), task.ID)
	if stored.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, cancel must not rewrite terminal state", stored.Status)
	}
}

func TestResultBeforeTerminalNotReady(t *testing.T) {
	h := newHarness(t, nil)

	task, err := h.manager.Submit(context.Background(), h.specWithSubtitle(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := h.manager.Result(context.Background(), task.ID); !errors.Is(err, services.ErrNotReady) {
		t.Fatalf("err = %v, want not-ready", err)
	}
}

func TestResultUnknownTask(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.manager.Result(context.Background(), 9999); !errors.Is(err, workflow.ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestFailedRenderSurfacesErrorEvent(t *testing.T) {
	runner := func(ctx context.Context, name string, args ...string) error {
		return fmt.Errorf("boom")
	}
	h := newHarness(t, runner)
	h.start(t)

	task, err := h.manager.Submit(context.Background(), h.specWithSubtitle(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	final := waitTerminal(t, h.manager, task.ID)
	if final.Stage != workflow.EventStageError {
		t.Fatalf("terminal stage = %q, want error", final.Stage)
	}

	stored, _ := h.store.GetByID(context.Background(), task.ID)
	if stored.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", stored.Status)
	}
	if stored.ErrorMessage == "" {
		t.Fatal("error message not recorded")
	}

	if _, err := h.manager.Result(context.Background(), task.ID); !errors.Is(err, services.ErrRender) {
		t.Fatalf("Result err = %v, want render error", err)
	}
}

func TestConcurrentSubmissionsAllComplete(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		task, err := h.manager.Submit(context.Background(), h.specWithSubtitle(t))
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		ids = append(ids, task.ID)
	}
	for _, id := range ids {
		final := waitTerminal(t, h.manager, id)
		if final.Stage != workflow.EventStageDone {
			t.Fatalf("task %d terminal stage = %q", id, final.Stage)
		}
	}
}

func TestSecondManagerCannotShareWorkspace(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)

	other := workflow.NewManager(h.cfg, h.store, nil, workflow.Services{})
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Fatal("second manager should fail to lock the workspace")
	}
}

func TestCompletedTaskKeepsSubtitleTrack(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)

	task, err := h.manager.Submit(context.Background(), h.specWithSubtitle(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if final := waitTerminal(t, h.manager, task.ID); final.Stage != workflow.EventStageDone {
		t.Fatalf("terminal stage = %q (%s), want done", final.Stage, final.Message)
	}

	// The job workspace is gone, but the cue track survives next to the
	// published artifacts.
	track := filepath.Join(h.cfg.Paths.OutputDir, "subtitles", "track.supplied.srt")
	data, err := os.ReadFile(track)
	if err != nil {
		t.Fatalf("subtitle track not persisted: %v", err)
	}
	if !strings.Contains(string(data), "Hello world") {
		t.Fatalf("persisted track missing cue text:\n%s", data)
	}
}

func TestTranscribedTaskKeepsSplitSubtitleTrack(t *testing.T) {
	h := newHarness(t, nil)
	h.start(t)

	spec := h.spec(t)
	spec.WordByWord = true
	task, err := h.manager.Submit(context.Background(), spec)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if final := waitTerminal(t, h.manager, task.ID); final.Stage != workflow.EventStageDone {
		t.Fatalf("terminal stage = %q (%s), want done", final.Stage, final.Message)
	}

	track := filepath.Join(h.cfg.Paths.OutputDir, "subtitles", "track.word.srt")
	data, err := os.ReadFile(track)
	if err != nil {
		t.Fatalf("subtitle track not persisted: %v", err)
	}
	// Word-by-word forces word splitting, so the phrase arrives as
	// separate cues.
	if !strings.Contains(string(data), "hello") || strings.Contains(string(data), "hello world") {
		t.Fatalf("expected word-level cues in persisted track:\n%s", data)
	}
}

func TestCancelImmediatelyAfterSubmit(t *testing.T) {
	h := newHarnessWithTranscriber(t, nil, blockingTranscriber{})
	h.start(t)

	task, err := h.manager.Submit(context.Background(), h.spec(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// Race the dispatcher's claim: whichever side wins, the outcome must be
	// cancellation, never a failure.
	if err := h.manager.Cancel(context.Background(), task.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	final := waitTerminal(t, h.manager, task.ID)
	if final.Stage != workflow.EventStageCancelled {
		t.Fatalf("terminal stage = %q (%s), want cancelled", final.Stage, final.Message)
	}

	stored, err := h.store.GetByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", stored.Status)
	}
	if _, err := h.manager.Result(context.Background(), task.ID); !errors.Is(err, workflow.ErrCancelled) {
		t.Fatalf("Result error = %v, want ErrCancelled", err)
	}
}
