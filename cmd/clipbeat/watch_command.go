package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clipbeat/internal/config"
	"clipbeat/internal/queue"
	"clipbeat/internal/workflow"
)

const watchPollInterval = time.Second

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <task-id>",
		Short: "Follow a task's progress until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				return watchTask(cmd, store, taskID)
			})
		},
	}
}

// watchTask polls the store rather than subscribing to the in-process hub,
// so it can follow a task owned by another clipbeat invocation.
func watchTask(cmd *cobra.Command, store *queue.Store, taskID int64) error {
	printer := newProgressPrinter(cmd.OutOrStdout())

	var lastStage, lastMessage string
	lastPercent := -1.0
	for {
		task, err := store.GetByID(cmd.Context(), taskID)
		if err != nil {
			return fmt.Errorf("load task %d: %w", taskID, err)
		}
		if task == nil {
			return fmt.Errorf("task %d not found", taskID)
		}

		evt := taskEvent(task)
		if evt.Stage != lastStage || evt.Message != lastMessage || evt.Percent != lastPercent {
			printer.Handle(evt)
			lastStage, lastMessage, lastPercent = evt.Stage, evt.Message, evt.Percent
		}
		if task.IsTerminal() {
			if task.Status == queue.StatusFailed {
				return fmt.Errorf("task %d failed: %s", taskID, task.ErrorMessage)
			}
			return nil
		}

		select {
		case <-cmd.Context().Done():
			printer.finishLine()
			return nil
		case <-time.After(watchPollInterval):
		}
	}
}

func taskEvent(task *queue.Task) workflow.Event {
	switch task.Status {
	case queue.StatusCompleted:
		return workflow.Event{Stage: workflow.EventStageDone, Message: task.ArtifactPath, Percent: 100}
	case queue.StatusFailed:
		return workflow.Event{Stage: workflow.EventStageError, Message: task.ErrorMessage}
	case queue.StatusCancelled:
		return workflow.Event{Stage: workflow.EventStageCancelled, Message: queue.CancelledMessage}
	default:
		stage := task.ProgressStage
		if stage == "" {
			stage = "queued"
		}
		return workflow.Event{
			Stage:   stage,
			Message: task.ProgressMessage,
			Percent: task.ProgressPercent,
		}
	}
}
