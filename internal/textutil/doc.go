// Package textutil provides filename sanitization helpers.
//
// Output artifacts are named after user-supplied media files, so the helpers
// here strip characters that are unsafe in path segments.
package textutil
