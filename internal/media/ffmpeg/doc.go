// Package ffmpeg builds and executes the ffmpeg invocations behind the render
// graph: per-segment trim/scale encodes, concat, audio mux, and subtitle
// burn-in. Command execution captures stderr and the exit code so render
// failures surface with enough context to diagnose.
package ffmpeg
