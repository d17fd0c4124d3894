// Package services defines shared utilities consumed by the pipeline stage
// handlers and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (validation vs analysis vs planning vs render) without string matching.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
