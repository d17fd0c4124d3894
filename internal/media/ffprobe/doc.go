// Package ffprobe wraps the ffprobe binary for media inspection. It is used
// to derive audio durations when a job spec omits them and to sanity-check
// source clips before planning.
package ffprobe
