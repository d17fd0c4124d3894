package render

import (
	"fmt"
	"strings"

	"clipbeat/internal/services"
)

// Error describes a failed external render stage.
type Error struct {
	Stage    string
	ExitCode int
	Stderr   string
}

func (e *Error) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		return fmt.Sprintf("render stage %s failed with exit code %d", e.Stage, e.ExitCode)
	}
	return fmt.Sprintf("render stage %s failed with exit code %d: %s", e.Stage, e.ExitCode, detail)
}

func (e *Error) Unwrap() error { return services.ErrRender }
