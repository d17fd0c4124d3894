package aubio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"clipbeat/internal/services"
)

const (
	// DefaultBinary is the aubio executable name resolved via PATH.
	DefaultBinary = "aubio"

	// baseThreshold is the onset threshold at sensitivity 1.0. Sensitivity
	// divides into it, so higher sensitivity lowers the threshold and yields
	// more beats.
	baseThreshold = 0.3

	minThreshold = 0.01
	maxThreshold = 0.99
)

// Service runs aubio beat tracking over an audio file.
type Service struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewService creates an aubio service using the given binary path.
func NewService(binary string) *Service {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Service{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	s.commandRunner = runner
}

// Threshold maps a sensitivity knob onto aubio's onset threshold.
// Sensitivity must be positive; values above 1.0 detect more beats.
func Threshold(sensitivity float64) float64 {
	if sensitivity <= 0 {
		sensitivity = 1.0
	}
	threshold := baseThreshold / sensitivity
	if threshold < minThreshold {
		threshold = minThreshold
	}
	if threshold > maxThreshold {
		threshold = maxThreshold
	}
	return threshold
}

// DetectBeats runs `aubio beat` against the audio file and returns the
// detected beat timestamps in seconds, in the order aubio emitted them.
func (s *Service) DetectBeats(ctx context.Context, audioPath string, sensitivity float64) ([]float64, error) {
	if audioPath == "" {
		return nil, services.Wrap(services.ErrValidation, "beat", "detect", "audio path required", nil)
	}

	args := buildArgs(audioPath, sensitivity)
	output, err := s.run(ctx, s.binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrAnalysis, "beat", "detect", "aubio beat failed", err)
	}

	beats, err := parseBeats(output)
	if err != nil {
		return nil, services.Wrap(services.ErrAnalysis, "beat", "parse", "unreadable aubio output", err)
	}
	return beats, nil
}

func buildArgs(audioPath string, sensitivity float64) []string {
	return []string{
		"beat",
		"--input", audioPath,
		"--onset-threshold", strconv.FormatFloat(Threshold(sensitivity), 'f', 3, 64),
	}
}

// parseBeats reads aubio's one-timestamp-per-line output. Blank lines are
// skipped; anything else that fails to parse aborts the run.
func parseBeats(output string) ([]float64, error) {
	var beats []float64
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		value, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("parse beat line %q: %w", line, err)
		}
		beats = append(beats, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return beats, nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) (string, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
