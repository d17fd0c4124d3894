// Package aubio wraps the aubio command line tool for beat onset detection.
package aubio
