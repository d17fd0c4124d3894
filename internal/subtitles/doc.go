// Package subtitles models timed subtitle cues: SRT parsing and
// serialization, transcript splitting, and font-size fitting.
package subtitles
