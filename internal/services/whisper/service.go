package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "clipbeat/internal/language"
	"clipbeat/internal/services"
)

const (
	// DefaultBinary is the whisper executable name resolved via PATH.
	DefaultBinary = "whisper"

	// DefaultModel balances speed and accuracy for song lyrics.
	DefaultModel = "small"
)

// Config holds whisper invocation settings.
type Config struct {
	Binary   string
	Model    string
	Language string
}

// Service transcribes audio via the whisper CLI.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Result describes the files whisper produced for one transcription.
type Result struct {
	// Segments are the transcribed segments with timings.
	Segments []Segment
	// JSONPath is the whisper JSON output file.
	JSONPath string
}

// Transcribe runs whisper against the audio file and loads the resulting
// segments. outputDir receives whisper's output files.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (Result, error) {
	var result Result

	if source == "" {
		return result, services.Wrap(services.ErrValidation, "whisper", "transcribe", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, services.Wrap(nil, "whisper", "transcribe", "ensure output dir", err)
	}

	args := s.buildArgs(source, outputDir)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return result, services.Wrap(nil, "whisper", "transcribe", "whisper failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")

	segments, err := LoadSegments(result.JSONPath)
	if err != nil {
		return result, services.Wrap(nil, "whisper", "transcribe", "load transcript", err)
	}
	result.Segments = segments
	return result, nil
}

// buildArgs constructs the whisper command arguments.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := []string{
		source,
		"--model", s.cfg.Model,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--word_timestamps", "True",
	}
	if lang := langpkg.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Word is a single word with timing from whisper output.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is a transcribed segment from whisper JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

type whisperPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a whisper JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisper json: %w", err)
	}
	return payload.Segments, nil
}

// TranscriptText concatenates the segment texts into one string.
func TranscriptText(segments []Segment) string {
	var parts []string
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
