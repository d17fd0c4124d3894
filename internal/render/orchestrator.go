// Package render sequences the external-process stages that assemble the
// final video: segment extraction, concatenation, audio mux, and subtitle
// burn-in. Each job owns a private temp directory for its lifetime.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"clipbeat/internal/logging"
	"clipbeat/internal/media/ffmpeg"
	"clipbeat/internal/segment"
	"clipbeat/internal/subtitles"
)

// Stage names reported in progress events and render errors.
const (
	StageExtract = "extract"
	StageConcat  = "concat"
	StageMux     = "mux"
	StageBurn    = "burn"
)

// Progress percent bands per stage. Extraction dominates wall time.
const (
	extractSpan = 70
	concatAt    = 80
	muxAt       = 90
	burnAt      = 100
)

// ProgressFunc receives percent updates within the render stage.
type ProgressFunc func(percent int, message string)

// Job is everything the orchestrator needs to produce one artifact.
type Job struct {
	Segments      []segment.Segment
	Cues          []subtitles.Cue
	Style         subtitles.Style
	AudioPath     string
	TotalDuration float64
	WorkDir       string
	OutputPath    string
}

// Orchestrator runs render jobs against an ffmpeg runner.
type Orchestrator struct {
	runner            *ffmpeg.Runner
	logger            *slog.Logger
	preset            string
	audioBitrate      string
	keepTempOnFailure bool
}

// Options configures an Orchestrator.
type Options struct {
	Runner            *ffmpeg.Runner
	Logger            *slog.Logger
	Preset            string
	AudioBitrate      string
	KeepTempOnFailure bool
}

// NewOrchestrator builds an orchestrator with the given options.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Runner == nil {
		opts.Runner = ffmpeg.NewRunner("")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Preset == "" {
		opts.Preset = "fast"
	}
	if opts.AudioBitrate == "" {
		opts.AudioBitrate = "192k"
	}
	return &Orchestrator{
		runner:            opts.Runner,
		logger:            opts.Logger,
		preset:            opts.Preset,
		audioBitrate:      opts.AudioBitrate,
		keepTempOnFailure: opts.KeepTempOnFailure,
	}
}

// Render executes the four stages in order and returns the artifact path.
// The job's temp directory is removed on every exit path; a failure keeps it
// only when KeepTempOnFailure is set, for diagnosis.
func (o *Orchestrator) Render(ctx context.Context, job Job, progress ProgressFunc) (artifact string, err error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	if len(job.Segments) == 0 {
		return "", &Error{Stage: StageExtract, ExitCode: -1, Stderr: "no segments to render"}
	}

	tempDir, err := os.MkdirTemp(job.WorkDir, "render-")
	if err != nil {
		return "", fmt.Errorf("create render temp dir: %w", err)
	}
	defer func() {
		if err != nil && o.keepTempOnFailure && !errors.Is(err, context.Canceled) {
			o.logger.Warn("keeping render temp dir for diagnosis", logging.String("dir", tempDir))
			return
		}
		if removeErr := os.RemoveAll(tempDir); removeErr != nil {
			o.logger.Warn("remove render temp dir", logging.Error(removeErr))
		}
	}()

	intermediates, err := o.extractSegments(ctx, job, tempDir, progress)
	if err != nil {
		return "", err
	}

	composite := filepath.Join(tempDir, "composite.mp4")
	if err = o.concat(ctx, intermediates, job.TotalDuration, tempDir, composite); err != nil {
		return "", err
	}
	progress(concatAt, "segments concatenated")

	muxed := filepath.Join(tempDir, "muxed.mp4")
	if err = o.mux(ctx, composite, job, muxed); err != nil {
		return "", err
	}
	progress(muxAt, "audio muxed")

	if err = o.burn(ctx, muxed, job, tempDir); err != nil {
		return "", err
	}
	progress(burnAt, "subtitles burned")

	return job.OutputPath, nil
}

// extractSegments encodes each segment's trim window to an intermediate file.
func (o *Orchestrator) extractSegments(ctx context.Context, job Job, tempDir string, progress ProgressFunc) ([]string, error) {
	intermediates := make([]string, 0, len(job.Segments))
	for i, seg := range job.Segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dest := filepath.Join(tempDir, fmt.Sprintf("segment_%04d.mp4", i))
		args := ffmpeg.TrimScaleArgs(
			seg.Clip.Source, seg.Clip.In, seg.Length(), seg.Clip.Loop,
			job.Style.Width, job.Style.Height, job.Style.FPS, o.preset, dest,
		)
		if err := o.run(ctx, StageExtract, args); err != nil {
			return nil, err
		}
		intermediates = append(intermediates, dest)
		progress((i+1)*extractSpan/len(job.Segments), fmt.Sprintf("segment %d/%d extracted", i+1, len(job.Segments)))
	}
	return intermediates, nil
}

func (o *Orchestrator) concat(ctx context.Context, intermediates []string, totalDuration float64, tempDir, dest string) error {
	listPath := filepath.Join(tempDir, "concat.txt")
	if err := ffmpeg.WriteConcatList(listPath, intermediates); err != nil {
		return &Error{Stage: StageConcat, ExitCode: -1, Stderr: err.Error()}
	}
	return o.run(ctx, StageConcat, ffmpeg.ConcatArgs(listPath, totalDuration, dest))
}

func (o *Orchestrator) mux(ctx context.Context, composite string, job Job, dest string) error {
	return o.run(ctx, StageMux, ffmpeg.MuxArgs(composite, job.AudioPath, job.TotalDuration, o.audioBitrate, dest))
}

// burn writes the styled cues to an SRT in the temp dir and burns them onto
// the muxed video. Without cues the muxed video becomes the artifact as-is.
func (o *Orchestrator) burn(ctx context.Context, muxed string, job Job, tempDir string) error {
	if len(job.Cues) == 0 {
		if err := os.Rename(muxed, job.OutputPath); err != nil {
			return &Error{Stage: StageBurn, ExitCode: -1, Stderr: err.Error()}
		}
		return nil
	}

	srtPath := filepath.Join(tempDir, "cues.srt")
	if err := subtitles.WriteSRT(srtPath, job.Cues); err != nil {
		return &Error{Stage: StageBurn, ExitCode: -1, Stderr: err.Error()}
	}

	style := ffmpeg.BurnStyle{
		Width:        job.Style.Width,
		Height:       job.Style.Height,
		FontName:     job.Style.FontName,
		FontSize:     burnFontSize(job.Cues, job.Style),
		FontColor:    job.Style.FontColor,
		OutlineColor: job.Style.OutlineColor,
	}
	return o.run(ctx, StageBurn, ffmpeg.BurnArgs(muxed, srtPath, style, job.OutputPath))
}

// burnFontSize picks the smallest resolved cue size so every styled cue fits
// at the burned size.
func burnFontSize(cues []subtitles.Cue, style subtitles.Style) int {
	size := style.FontSize
	for _, cue := range cues {
		if cue.FontSize > 0 && cue.FontSize < size {
			size = cue.FontSize
		}
	}
	return size
}

// run executes one ffmpeg invocation, mapping failures to stage errors.
func (o *Orchestrator) run(ctx context.Context, stage string, args []string) error {
	o.logger.Debug("ffmpeg invocation",
		logging.String("render_stage", stage),
		logging.Int("arg_count", len(args)))

	err := o.runner.Run(ctx, args...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var exitErr *ffmpeg.ExitError
	if errors.As(err, &exitErr) {
		return &Error{Stage: stage, ExitCode: exitErr.ExitCode, Stderr: exitErr.Stderr}
	}
	return &Error{Stage: stage, ExitCode: -1, Stderr: err.Error()}
}
