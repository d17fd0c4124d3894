// Package stage defines the contract the workflow manager needs from each
// pipeline stage.
package stage

import (
	"context"

	"clipbeat/internal/queue"
)

// Handler is one pipeline stage. Prepare validates inputs and may annotate
// the task before the processing transition is persisted; Execute does the
// work and updates progress.
type Handler interface {
	Prepare(context.Context, *queue.Task) error
	Execute(context.Context, *queue.Task) error
}
