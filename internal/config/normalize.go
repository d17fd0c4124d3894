package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeSubtitles()
	c.normalizeBeats()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRender() {
	if c.Render.VideoWidth <= 0 {
		c.Render.VideoWidth = defaultVideoWidth
	}
	if c.Render.VideoHeight <= 0 {
		c.Render.VideoHeight = defaultVideoHeight
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = defaultFPS
	}
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.FFmpegBinary == "" {
		c.Render.FFmpegBinary = defaultFFmpeg
	}
	c.Render.FFprobeBinary = strings.TrimSpace(c.Render.FFprobeBinary)
	if c.Render.FFprobeBinary == "" {
		c.Render.FFprobeBinary = defaultFFprobe
	}
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	if c.Render.Preset == "" {
		c.Render.Preset = defaultPreset
	}
	c.Render.AudioBitrate = strings.TrimSpace(c.Render.AudioBitrate)
	if c.Render.AudioBitrate == "" {
		c.Render.AudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.WhisperBinary = strings.TrimSpace(c.Subtitles.WhisperBinary)
	if c.Subtitles.WhisperBinary == "" {
		c.Subtitles.WhisperBinary = defaultWhisperBinary
	}
	c.Subtitles.WhisperModel = strings.ToLower(strings.TrimSpace(c.Subtitles.WhisperModel))
	if c.Subtitles.WhisperModel == "" {
		c.Subtitles.WhisperModel = defaultWhisperModel
	}
	c.Subtitles.Language = strings.TrimSpace(c.Subtitles.Language)
	if c.Subtitles.Language == "" {
		c.Subtitles.Language = defaultLanguage
	}
	c.Subtitles.SplitMode = strings.ToLower(strings.TrimSpace(c.Subtitles.SplitMode))
	if c.Subtitles.SplitMode == "" {
		c.Subtitles.SplitMode = defaultSplitMode
	}
	c.Subtitles.FontName = strings.TrimSpace(c.Subtitles.FontName)
	if c.Subtitles.FontName == "" {
		c.Subtitles.FontName = defaultFontName
	}
	if c.Subtitles.FontSize <= 0 {
		c.Subtitles.FontSize = defaultFontSize
	}
	c.Subtitles.FontColor = strings.TrimSpace(c.Subtitles.FontColor)
	if c.Subtitles.FontColor == "" {
		c.Subtitles.FontColor = defaultFontColor
	}
	c.Subtitles.OutlineColor = strings.TrimSpace(c.Subtitles.OutlineColor)
	if c.Subtitles.OutlineColor == "" {
		c.Subtitles.OutlineColor = defaultOutlineColor
	}
}

func (c *Config) normalizeBeats() {
	c.Beats.AubioBinary = strings.TrimSpace(c.Beats.AubioBinary)
	if c.Beats.AubioBinary == "" {
		c.Beats.AubioBinary = defaultAubioBinary
	}
	if c.Beats.Sensitivity == 0 {
		c.Beats.Sensitivity = defaultSensitivity
	}
	if c.Beats.BeatsPerCut <= 0 {
		c.Beats.BeatsPerCut = defaultBeatsPerCut
	}
	c.Beats.ClipReuse = strings.ToLower(strings.TrimSpace(c.Beats.ClipReuse))
	if c.Beats.ClipReuse == "" {
		c.Beats.ClipReuse = defaultClipReuse
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.MaxConcurrentJobs <= 0 {
		c.Workflow.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if c.Workflow.RetentionHours <= 0 {
		c.Workflow.RetentionHours = defaultRetentionHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
