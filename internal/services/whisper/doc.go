// Package whisper wraps the whisper command line tool for speech
// transcription with word-level timings.
package whisper
