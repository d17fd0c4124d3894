package config

import (
	"errors"
	"fmt"
)

var validSplitModes = map[string]struct{}{
	"none":     {},
	"word":     {},
	"comma":    {},
	"sentence": {},
}

var validWhisperModels = map[string]struct{}{
	"tiny":   {},
	"base":   {},
	"small":  {},
	"medium": {},
	"large":  {},
}

var validClipReuse = map[string]struct{}{
	"loop":   {},
	"strict": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateBeats(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.VideoWidth <= 0 || c.Render.VideoHeight <= 0 {
		return errors.New("render.video_width and render.video_height must be positive")
	}
	if c.Render.FPS <= 0 {
		return errors.New("render.fps must be positive")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if _, ok := validWhisperModels[c.Subtitles.WhisperModel]; !ok {
		return fmt.Errorf("subtitles.whisper_model: unsupported value %q (tiny/base/small/medium/large)", c.Subtitles.WhisperModel)
	}
	if _, ok := validSplitModes[c.Subtitles.SplitMode]; !ok {
		return fmt.Errorf("subtitles.split_mode: unsupported value %q (none/word/comma/sentence)", c.Subtitles.SplitMode)
	}
	if c.Subtitles.FontSize <= 0 {
		return errors.New("subtitles.font_size must be positive")
	}
	return nil
}

func (c *Config) validateBeats() error {
	if c.Beats.Sensitivity <= 0 {
		return errors.New("beats.sensitivity must be positive")
	}
	if c.Beats.BeatsPerCut < 1 {
		return errors.New("beats.beats_per_cut must be at least 1")
	}
	if _, ok := validClipReuse[c.Beats.ClipReuse]; !ok {
		return fmt.Errorf("beats.clip_reuse: unsupported value %q (loop/strict)", c.Beats.ClipReuse)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxConcurrentJobs <= 0 {
		return errors.New("workflow.max_concurrent_jobs must be positive")
	}
	if c.Workflow.RetentionHours <= 0 {
		return errors.New("workflow.retention_hours must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (console/json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q (debug/info/warn/error)", c.Logging.Level)
	}
	return nil
}
