package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"clipbeat/internal/config"
	"clipbeat/internal/fileutil"
	"clipbeat/internal/queue"
	"clipbeat/internal/workflow"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		audioPath    string
		subtitlePath string
		outputPath   string
		duration     float64
		beatsPerCut  int
		sensitivity  float64
		splitMode    string
		model        string
		language     string
		clipReuse    string
		wordByWord   bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "render [clips...]",
		Short: "Render a beat-synchronized video from clips and an audio track",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(verbose)
			if err != nil {
				return err
			}

			spec := workflow.NewJobSpec(cfg)
			for _, clip := range args {
				expanded, err := config.ExpandPath(clip)
				if err != nil {
					return fmt.Errorf("resolve clip path %q: %w", clip, err)
				}
				spec.ClipPaths = append(spec.ClipPaths, expanded)
			}
			if spec.AudioPath, err = config.ExpandPath(audioPath); err != nil {
				return fmt.Errorf("resolve audio path: %w", err)
			}
			if subtitlePath != "" {
				if spec.SubtitlePath, err = config.ExpandPath(subtitlePath); err != nil {
					return fmt.Errorf("resolve subtitle path: %w", err)
				}
			}
			spec.TotalDuration = duration
			if cmd.Flags().Changed("beats-per-cut") {
				spec.BeatsPerCut = beatsPerCut
			}
			if cmd.Flags().Changed("sensitivity") {
				spec.BeatSensitivity = sensitivity
			}
			if cmd.Flags().Changed("split") {
				spec.SplitMode = splitMode
			}
			if cmd.Flags().Changed("model") {
				spec.WhisperModel = model
			}
			if cmd.Flags().Changed("language") {
				spec.Language = language
			}
			if cmd.Flags().Changed("reuse") {
				spec.ClipReuse = clipReuse
			}
			if cmd.Flags().Changed("word-by-word") {
				spec.WordByWord = wordByWord
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				return runRenderJob(cmd, cfg, store, logger, spec, outputPath)
			})
		},
	}

	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "Audio track to score the video against")
	cmd.Flags().StringVarP(&subtitlePath, "subtitle", "s", "", "Pre-authored SRT file (skips transcription)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Move the finished video to this path")
	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Video length in seconds (defaults to the audio length)")
	cmd.Flags().IntVar(&beatsPerCut, "beats-per-cut", 0, "Number of beats each segment spans")
	cmd.Flags().Float64Var(&sensitivity, "sensitivity", 0, "Beat detection sensitivity")
	cmd.Flags().StringVar(&splitMode, "split", "", "Cue split mode: none, word, comma, sentence")
	cmd.Flags().StringVar(&model, "model", "", "Whisper model: tiny, base, small, medium, large")
	cmd.Flags().StringVar(&language, "language", "", "Spoken language hint for transcription")
	cmd.Flags().StringVar(&clipReuse, "reuse", "", "Short clip policy: loop or strict")
	cmd.Flags().BoolVar(&wordByWord, "word-by-word", false, "Display one word at a time")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Mirror the log to stderr")
	_ = cmd.MarkFlagRequired("audio")

	return cmd
}

// runRenderJob submits one task, streams its progress to the terminal, and
// resolves the finished artifact.
func runRenderJob(cmd *cobra.Command, cfg *config.Config, store *queue.Store, logger *slog.Logger, spec workflow.JobSpec, outputPath string) error {
	manager := workflow.NewManager(cfg, store, logger, workflow.DefaultServices(cfg, logger))
	if err := manager.Start(cmd.Context()); err != nil {
		return err
	}
	defer manager.Stop()

	task, err := manager.Submit(cmd.Context(), spec)
	if err != nil {
		return err
	}

	events, err := manager.Observe(cmd.Context(), task.ID)
	if err != nil {
		return err
	}

	printer := newProgressPrinter(cmd.OutOrStdout())
	for evt := range events {
		printer.Handle(evt)
	}

	// The command context may already be cancelled here; the result lookup
	// must still run so the outcome is reported.
	artifact, err := manager.Result(context.Background(), task.ID)
	if err != nil {
		if errors.Is(err, workflow.ErrCancelled) {
			return context.Canceled
		}
		return err
	}

	if outputPath != "" {
		dest, err := config.ExpandPath(outputPath)
		if err != nil {
			return fmt.Errorf("resolve output path: %w", err)
		}
		if err := fileutil.MoveFile(artifact, dest); err != nil {
			return fmt.Errorf("move artifact to %s: %w", dest, err)
		}
		artifact = dest
	}
	fmt.Fprintln(cmd.OutOrStdout(), artifact)
	return nil
}
