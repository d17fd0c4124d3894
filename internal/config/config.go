package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
}

// Render contains defaults for the composited render.
type Render struct {
	VideoWidth        int    `toml:"video_width"`
	VideoHeight       int    `toml:"video_height"`
	FPS               int    `toml:"fps"`
	FFmpegBinary      string `toml:"ffmpeg_binary"`
	FFprobeBinary     string `toml:"ffprobe_binary"`
	Preset            string `toml:"preset"`
	AudioBitrate      string `toml:"audio_bitrate"`
	KeepTempOnFailure bool   `toml:"keep_temp_on_failure"`
}

// Subtitles contains transcription and styling defaults.
type Subtitles struct {
	WhisperBinary   string `toml:"whisper_binary"`
	WhisperModel    string `toml:"whisper_model"`
	Language        string `toml:"language"`
	SplitMode       string `toml:"split_mode"`
	FontName        string `toml:"font_name"`
	FontSize        int    `toml:"font_size"`
	AutoFitFontSize bool   `toml:"auto_fit_font_size"`
	FontColor       string `toml:"font_color"`
	OutlineColor    string `toml:"outline_color"`
	WordByWord      bool   `toml:"word_by_word"`
}

// Beats contains beat-detection and cut-planning defaults.
type Beats struct {
	AubioBinary string  `toml:"aubio_binary"`
	Sensitivity float64 `toml:"sensitivity"`
	BeatsPerCut int     `toml:"beats_per_cut"`
	// ClipReuse selects what happens when a clip is shorter than the footage
	// a segment needs: "loop" wraps to the clip start, "strict" fails the plan.
	ClipReuse string `toml:"clip_reuse"`
}

// Workflow contains controller concurrency and retention settings.
type Workflow struct {
	MaxConcurrentJobs int `toml:"max_concurrent_jobs"`
	RetentionHours    int `toml:"retention_hours"`
}

// Notifications contains push notification settings. Notifications are
// disabled unless an ntfy topic URL is configured.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipbeat.
//
// Configuration sections by subsystem:
//   - Paths: workspace, output, and log directories
//   - Render: canvas geometry, fps, ffmpeg settings
//   - Subtitles: whisper transcription and burn-in styling defaults
//   - Beats: aubio beat tracking and cut planning defaults
//   - Workflow: controller concurrency and task retention
//   - Notifications: optional ntfy push notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Render        Render        `toml:"render"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Beats         Beats         `toml:"beats"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipbeat/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipbeat.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a controller run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
