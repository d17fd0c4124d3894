package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipbeat/internal/beats"
	"clipbeat/internal/fileutil"
	"clipbeat/internal/queue"
	"clipbeat/internal/render"
	"clipbeat/internal/segment"
	"clipbeat/internal/services"
	"clipbeat/internal/stage"
	"clipbeat/internal/subtitles"
	"clipbeat/internal/textutil"
)

// pipelineStage binds a handler to the status transitions it moves between.
type pipelineStage struct {
	name             string
	eventStage       string
	processingStatus queue.Status
	doneStatus       queue.Status
	handler          stage.Handler
}

// taskRun carries one task through its stages. Stages run sequentially in a
// single goroutine, so the intermediates need no locking.
type taskRun struct {
	manager *Manager
	task    *queue.Task
	spec    JobSpec
	hub     *Hub
	workDir string

	cues     []subtitles.Cue
	timeline beats.Timeline
	duration float64
	segments []segment.Segment
	rendered string
}

func (r *taskRun) stages() []pipelineStage {
	return []pipelineStage{
		{
			name:             "transcribe",
			eventStage:       EventStageWhisper,
			processingStatus: queue.StatusTranscribing,
			doneStatus:       queue.StatusTranscribed,
			handler:          &transcribeStage{run: r},
		},
		{
			name:             "beat-detect",
			eventStage:       EventStageBeat,
			processingStatus: queue.StatusBeatDetecting,
			doneStatus:       queue.StatusBeatsDetected,
			handler:          &beatStage{run: r},
		},
		{
			name:             "render",
			eventStage:       EventStageFFmpeg,
			processingStatus: queue.StatusRendering,
			doneStatus:       queue.StatusRendered,
			handler:          &renderStage{run: r},
		},
		{
			name:             "finalize",
			eventStage:       EventStageFinalize,
			processingStatus: queue.StatusFinalizing,
			doneStatus:       queue.StatusCompleted,
			handler:          &finalizeStage{run: r},
		},
	}
}

// publish persists task progress and pushes the event to observers.
func (r *taskRun) publish(ctx context.Context, eventStage, message string, percent float64) {
	r.task.SetProgress(eventStage, message, percent)
	if err := r.manager.store.Update(ctx, r.task); err != nil {
		r.manager.logger.Warn("persist progress", "task_id", r.task.ID, "error", err)
	}
	r.hub.Publish(Event{Stage: eventStage, Message: message, Percent: percent})
}

// artifactName derives the published filename from the audio track, falling
// back to the rendered temp name when sanitization strips everything.
func (r *taskRun) artifactName() string {
	base := strings.TrimSuffix(filepath.Base(r.spec.AudioPath), filepath.Ext(r.spec.AudioPath))
	if sanitized := textutil.SanitizeFileName(base); sanitized != "" {
		return sanitized + ".mp4"
	}
	return filepath.Base(r.rendered)
}

// persistCues writes the cue track under the output directory so it survives
// workspace cleanup and can be inspected after the job finishes.
func (r *taskRun) persistCues(mode string) (string, error) {
	dir := filepath.Join(r.manager.cfg.Paths.OutputDir, "subtitles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	stem := textutil.SanitizeFileName(strings.TrimSuffix(filepath.Base(r.spec.AudioPath), filepath.Ext(r.spec.AudioPath)))
	if stem == "" {
		stem = fmt.Sprintf("task-%d", r.task.ID)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.srt", stem, mode))
	if err := subtitles.WriteSRT(path, r.cues); err != nil {
		return "", err
	}
	return path, nil
}

// transcribeStage produces cues, either by parsing a supplied subtitle file
// or by running speech transcription.
type transcribeStage struct {
	run *taskRun
}

func (s *transcribeStage) Prepare(ctx context.Context, task *queue.Task) error {
	return nil
}

func (s *transcribeStage) Execute(ctx context.Context, task *queue.Task) error {
	run := s.run

	if supplied := strings.TrimSpace(run.spec.SubtitlePath); supplied != "" {
		run.publish(ctx, EventStageWhisper, "loading supplied subtitle", 10)
		cues, err := subtitles.LoadSupplied(supplied)
		if err != nil {
			return err
		}
		run.cues = cues
		s.persist(task, "supplied")
		run.publish(ctx, EventStageWhisper, fmt.Sprintf("%d cues loaded", len(cues)), 100)
		return nil
	}

	run.publish(ctx, EventStageWhisper, "transcribing audio", 5)
	transcriber := run.manager.services.NewTranscriber(run.spec.WhisperModel, run.spec.Language)
	aligner := subtitles.NewAligner(transcriber, run.spec.EffectiveSplitMode())
	cues, err := aligner.Align(ctx, run.spec.AudioPath, run.workDir)
	if err != nil {
		return err
	}
	run.cues = cues
	s.persist(task, run.spec.EffectiveSplitMode())
	run.publish(ctx, EventStageWhisper, fmt.Sprintf("%d cues aligned", len(cues)), 100)
	return nil
}

// persist keeps a copy of the cue track for later inspection. Failure to
// write it never fails the task.
func (s *transcribeStage) persist(task *queue.Task, mode string) {
	if _, err := s.run.persistCues(mode); err != nil {
		s.run.manager.logger.Warn("persist subtitle track", "task_id", task.ID, "error", err)
	}
}

// beatStage probes the audio duration when the spec omits it, then builds
// the beat timeline.
type beatStage struct {
	run *taskRun
}

func (s *beatStage) Prepare(ctx context.Context, task *queue.Task) error {
	run := s.run
	run.duration = run.spec.TotalDuration
	if run.duration > 0 {
		return nil
	}
	duration, err := run.manager.services.Prober.Duration(ctx, run.spec.AudioPath)
	if err != nil {
		return services.Wrap(services.ErrAnalysis, "beat", "probe", "probe audio duration", err)
	}
	run.duration = duration
	return nil
}

func (s *beatStage) Execute(ctx context.Context, task *queue.Task) error {
	run := s.run
	run.publish(ctx, EventStageBeat, "detecting beats", 10)

	timeline, err := beats.Analyze(ctx, run.manager.services.Detector, run.spec.AudioPath, run.spec.BeatSensitivity, run.duration)
	if err != nil {
		return err
	}
	run.timeline = timeline
	run.publish(ctx, EventStageBeat, fmt.Sprintf("%d beats detected", len(timeline.Beats)), 100)
	return nil
}

// renderStage plans segments from the beat timeline and drives the external
// render pipeline.
type renderStage struct {
	run *taskRun
}

func (s *renderStage) Prepare(ctx context.Context, task *queue.Task) error {
	run := s.run

	clips := make([]segment.Clip, 0, len(run.spec.ClipPaths))
	for _, path := range run.spec.ClipPaths {
		duration, err := run.manager.services.Prober.Duration(ctx, path)
		if err != nil {
			return services.Wrap(services.ErrPlanning, "plan", "probe", fmt.Sprintf("probe clip %s", path), err)
		}
		clips = append(clips, segment.Clip{Path: path, Duration: duration})
	}

	segments, err := segment.Plan(run.timeline, run.spec.BeatsPerCut, clips, run.duration, run.spec.ClipReuse)
	if err != nil {
		return err
	}
	run.segments = segments
	return nil
}

func (s *renderStage) Execute(ctx context.Context, task *queue.Task) error {
	run := s.run
	run.publish(ctx, EventStageFFmpeg, fmt.Sprintf("rendering %d segments", len(run.segments)), 0)

	style := run.spec.Style()
	styled := subtitles.ApplyStyle(run.cues, style)

	job := render.Job{
		Segments:      run.segments,
		Cues:          styled,
		Style:         style,
		AudioPath:     run.spec.AudioPath,
		TotalDuration: run.duration,
		WorkDir:       run.workDir,
		OutputPath:    filepath.Join(run.workDir, fmt.Sprintf("task-%d.mp4", task.ID)),
	}

	artifact, err := run.manager.services.Orchestrator.Render(ctx, job, func(percent int, message string) {
		run.publish(ctx, EventStageFFmpeg, message, float64(percent))
	})
	if err != nil {
		return err
	}
	run.rendered = artifact
	return nil
}

// finalizeStage moves the rendered artifact to the output directory and
// records its location on the task.
type finalizeStage struct {
	run *taskRun
}

func (s *finalizeStage) Prepare(ctx context.Context, task *queue.Task) error {
	return nil
}

func (s *finalizeStage) Execute(ctx context.Context, task *queue.Task) error {
	run := s.run
	run.publish(ctx, EventStageFinalize, "publishing artifact", 10)

	dest := filepath.Join(run.manager.cfg.Paths.OutputDir, run.artifactName())
	if _, err := os.Stat(dest); err == nil {
		// A previous task already published this name; disambiguate.
		ext := filepath.Ext(dest)
		dest = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(dest, ext), task.ID, ext)
	}
	if err := fileutil.MoveFile(run.rendered, dest); err != nil {
		return services.Wrap(nil, "finalize", "publish", "move artifact to output", err)
	}

	task.ArtifactPath = dest
	run.publish(ctx, EventStageFinalize, "artifact published", 100)
	return nil
}
