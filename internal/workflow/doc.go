// Package workflow drives render tasks through the pipeline state machine:
// transcription, beat detection, rendering, and finalization. It owns task
// submission, concurrent execution, cancellation, progress fan-out, and
// terminal result retrieval.
package workflow
