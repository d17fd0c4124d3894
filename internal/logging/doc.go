// Package logging builds the slog loggers used across clipbeat.
//
// It provides a console handler for interactive use, a JSON handler for
// machine consumption, typed attribute helpers, and context-derived fields
// so task and stage identifiers appear on every log line emitted inside a
// pipeline stage.
package logging
