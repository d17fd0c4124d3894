package workflow

import (
	"encoding/json"
	"fmt"
	"strings"

	"clipbeat/internal/config"
	"clipbeat/internal/services"
	"clipbeat/internal/subtitles"
)

// JobSpec is the validated input describing one render task. It is stored
// serialized alongside the task row so a restart can reconstruct it.
type JobSpec struct {
	ClipPaths    []string `json:"clip_paths"`
	AudioPath    string   `json:"audio_path"`
	SubtitlePath string   `json:"subtitle_path,omitempty"`

	Language     string `json:"language,omitempty"`
	WhisperModel string `json:"whisper_model,omitempty"`
	SplitMode    string `json:"split_mode,omitempty"`

	BeatSensitivity float64 `json:"beat_sensitivity"`
	BeatsPerCut     int     `json:"beats_per_cut"`
	ClipReuse       string  `json:"clip_reuse,omitempty"`

	// TotalDuration is derived by probing the audio source when zero.
	TotalDuration float64 `json:"total_duration,omitempty"`

	VideoWidth  int `json:"video_width"`
	VideoHeight int `json:"video_height"`
	FPS         int `json:"fps"`

	FontName        string `json:"font_name"`
	FontSize        int    `json:"font_size"`
	AutoFitFontSize bool   `json:"auto_fit_font_size"`
	FontColor       string `json:"font_color"`
	OutlineColor    string `json:"outline_color"`
	WordByWord      bool   `json:"word_by_word"`
}

// NewJobSpec seeds a spec from configured defaults; callers override the
// media paths and anything job-specific.
func NewJobSpec(cfg *config.Config) JobSpec {
	return JobSpec{
		Language:        cfg.Subtitles.Language,
		WhisperModel:    cfg.Subtitles.WhisperModel,
		SplitMode:       cfg.Subtitles.SplitMode,
		BeatSensitivity: cfg.Beats.Sensitivity,
		BeatsPerCut:     cfg.Beats.BeatsPerCut,
		ClipReuse:       cfg.Beats.ClipReuse,
		VideoWidth:      cfg.Render.VideoWidth,
		VideoHeight:     cfg.Render.VideoHeight,
		FPS:             cfg.Render.FPS,
		FontName:        cfg.Subtitles.FontName,
		FontSize:        cfg.Subtitles.FontSize,
		AutoFitFontSize: cfg.Subtitles.AutoFitFontSize,
		FontColor:       cfg.Subtitles.FontColor,
		OutlineColor:    cfg.Subtitles.OutlineColor,
		WordByWord:      cfg.Subtitles.WordByWord,
	}
}

var validWhisperModels = map[string]struct{}{
	"tiny": {}, "base": {}, "small": {}, "medium": {}, "large": {},
}

var validSplitModes = map[string]struct{}{
	subtitles.SplitNone: {}, subtitles.SplitWord: {}, subtitles.SplitComma: {}, subtitles.SplitSentence: {},
}

// Validate checks the spec before it may enter the queue.
func (s JobSpec) Validate() error {
	fail := func(message string) error {
		return services.Wrap(services.ErrValidation, "submit", "validate", message, nil)
	}

	if len(s.ClipPaths) == 0 {
		return fail("at least one video clip is required")
	}
	for i, clip := range s.ClipPaths {
		if strings.TrimSpace(clip) == "" {
			return fail(fmt.Sprintf("clip path %d is empty", i))
		}
	}
	if strings.TrimSpace(s.AudioPath) == "" {
		return fail("exactly one audio source is required")
	}
	if s.BeatsPerCut < 1 {
		return fail("beats per cut must be at least 1")
	}
	if s.BeatSensitivity <= 0 {
		return fail("beat sensitivity must be positive")
	}
	if s.VideoWidth <= 0 || s.VideoHeight <= 0 {
		return fail("video dimensions must be positive")
	}
	if s.FPS <= 0 {
		return fail("frame rate must be positive")
	}
	if s.TotalDuration < 0 {
		return fail("total duration must not be negative")
	}
	if s.FontSize <= 0 {
		return fail("font size must be positive")
	}

	// Transcription settings only matter when no subtitle file is supplied.
	if strings.TrimSpace(s.SubtitlePath) == "" {
		if _, ok := validWhisperModels[s.WhisperModel]; !ok {
			return fail(fmt.Sprintf("unknown whisper model %q", s.WhisperModel))
		}
		if s.SplitMode != "" {
			if _, ok := validSplitModes[s.SplitMode]; !ok {
				return fail(fmt.Sprintf("unknown split mode %q", s.SplitMode))
			}
		}
	}
	return nil
}

// EffectiveSplitMode resolves the cue granularity used by the aligner.
// Word-by-word display implies word-level cues regardless of the configured
// split mode.
func (s JobSpec) EffectiveSplitMode() string {
	if s.WordByWord {
		return subtitles.SplitWord
	}
	if s.SplitMode == "" {
		return subtitles.SplitNone
	}
	return s.SplitMode
}

// Style resolves the immutable render style for this spec.
func (s JobSpec) Style() subtitles.Style {
	return subtitles.Style{
		Width:        s.VideoWidth,
		Height:       s.VideoHeight,
		FPS:          s.FPS,
		FontName:     s.FontName,
		FontSize:     s.FontSize,
		AutoFit:      s.AutoFitFontSize,
		FontColor:    s.FontColor,
		OutlineColor: s.OutlineColor,
		WordByWord:   s.WordByWord,
	}
}

// Marshal serializes the spec for task storage.
func (s JobSpec) Marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal job spec: %w", err)
	}
	return string(data), nil
}

// UnmarshalJobSpec restores a spec from its stored form.
func UnmarshalJobSpec(raw string) (JobSpec, error) {
	var spec JobSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return spec, fmt.Errorf("unmarshal job spec: %w", err)
	}
	return spec, nil
}
