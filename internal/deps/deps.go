// Package deps reports the availability of the external tools clipbeat
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"clipbeat/internal/config"
)

// Requirement defines an external dependency clipbeat relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external binaries the pipeline invokes, resolved
// from configuration. Whisper is optional because supplied subtitle files
// bypass transcription.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: cfg.Render.FFmpegBinary, Description: "Trims, concatenates, and composites video"},
		{Name: "FFprobe", Command: cfg.Render.FFprobeBinary, Description: "Probes media durations and streams"},
		{Name: "aubio", Command: cfg.Beats.AubioBinary, Description: "Detects beat onsets in the audio track"},
		{Name: "Whisper", Command: cfg.Subtitles.WhisperBinary, Description: "Transcribes lyrics with word timings", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
