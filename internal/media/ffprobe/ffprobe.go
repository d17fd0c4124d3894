package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspector probes media files. The runner indirection exists for tests.
type Inspector struct {
	binary string
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewInspector returns an Inspector that shells out to the given binary
// ("ffprobe" when empty).
func NewInspector(binary string) *Inspector {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Inspector{binary: binary}
}

// WithRunner sets a custom command runner (for testing).
func (i *Inspector) WithRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) *Inspector {
	i.runner = runner
	return i
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func (i *Inspector) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	output, err := i.run(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Duration returns the container duration for path in seconds.
func (i *Inspector) Duration(ctx context.Context, path string) (float64, error) {
	result, err := i.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	seconds := result.DurationSeconds()
	if seconds <= 0 {
		return 0, fmt.Errorf("ffprobe: no duration reported for %s", path)
	}
	return seconds, nil
}

func (i *Inspector) run(ctx context.Context, args []string) ([]byte, error) {
	if i.runner != nil {
		return i.runner(ctx, i.binary, args...)
	}
	cmd := exec.CommandContext(ctx, i.binary, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return output, nil
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// HasAudio reports whether any audio stream was discovered.
func (r Result) HasAudio() bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return true
		}
	}
	return false
}

// HasVideo reports whether any video stream was discovered.
func (r Result) HasVideo() bool {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return true
		}
	}
	return false
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}
