package config

const (
	defaultWorkspaceDir = "~/.local/share/clipbeat/workspace"
	defaultOutputDir    = "~/.local/share/clipbeat/output"
	defaultLogDir       = "~/.local/share/clipbeat/logs"

	defaultVideoWidth   = 1080
	defaultVideoHeight  = 1920
	defaultFPS          = 30
	defaultFFmpeg       = "ffmpeg"
	defaultFFprobe      = "ffprobe"
	defaultPreset       = "fast"
	defaultAudioBitrate = "192k"

	defaultWhisperBinary = "whisper"
	defaultWhisperModel  = "small"
	defaultLanguage      = "English"
	defaultSplitMode     = "none"
	defaultFontName      = "Arial"
	defaultFontSize      = 18
	defaultFontColor     = "&H00FFFFFF"
	defaultOutlineColor  = "&H00000000"

	defaultAubioBinary = "aubio"
	defaultSensitivity = 1.0
	defaultBeatsPerCut = 2
	defaultClipReuse   = "loop"

	defaultMaxConcurrentJobs = 2
	defaultRetentionHours    = 24

	defaultNotifyTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
		},
		Render: Render{
			VideoWidth:    defaultVideoWidth,
			VideoHeight:   defaultVideoHeight,
			FPS:           defaultFPS,
			FFmpegBinary:  defaultFFmpeg,
			FFprobeBinary: defaultFFprobe,
			Preset:        defaultPreset,
			AudioBitrate:  defaultAudioBitrate,
		},
		Subtitles: Subtitles{
			WhisperBinary:   defaultWhisperBinary,
			WhisperModel:    defaultWhisperModel,
			Language:        defaultLanguage,
			SplitMode:       defaultSplitMode,
			FontName:        defaultFontName,
			FontSize:        defaultFontSize,
			AutoFitFontSize: true,
			FontColor:       defaultFontColor,
			OutlineColor:    defaultOutlineColor,
		},
		Beats: Beats{
			AubioBinary: defaultAubioBinary,
			Sensitivity: defaultSensitivity,
			BeatsPerCut: defaultBeatsPerCut,
			ClipReuse:   defaultClipReuse,
		},
		Workflow: Workflow{
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
			RetentionHours:    defaultRetentionHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
