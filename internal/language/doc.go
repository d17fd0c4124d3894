// Package language normalizes user-supplied language names and codes for the
// transcriber. Job specs may carry either a display name ("Swedish") or an
// ISO 639 code ("sv", "swe"); everything funnels through here so the whisper
// invocation always receives a 2-letter code and log output a readable name.
package language
