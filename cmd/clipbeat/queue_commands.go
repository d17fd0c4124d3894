package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clipbeat/internal/config"
	"clipbeat/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the task queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show task counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(stats))
				for _, status := range queue.AllStatuses() {
					if count := stats[status]; count > 0 {
						rows = append(rows, []string{string(status), strconv.Itoa(count)})
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, 1))
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var statuses []queue.Status
				for _, raw := range listStatuses {
					status, ok := queue.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q", raw)
					}
					statuses = append(statuses, status)
				}

				tasks, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(tasks))
				for _, task := range tasks {
					rows = append(rows, []string{
						strconv.FormatInt(task.ID, 10),
						string(task.Status),
						task.ProgressStage,
						fmt.Sprintf("%.0f%%", task.ProgressPercent),
						task.CreatedAt.Local().Format(time.DateTime),
						taskDetail(task),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Stage", "Progress", "Created", "Detail"},
					rows, 0, 3,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

// taskDetail picks the most useful single column for a task row.
func taskDetail(task *queue.Task) string {
	switch task.Status {
	case queue.StatusCompleted:
		return task.ArtifactPath
	case queue.StatusFailed:
		return task.ErrorMessage
	default:
		return task.ProgressMessage
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <task-id>",
		Short: "Remove a task from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("task %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed task %d\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completedOnly bool
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear tasks from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				var removed int64
				var err error
				switch {
				case completedOnly && failedOnly:
					return fmt.Errorf("--completed and --failed are mutually exclusive")
				case completedOnly:
					removed, err = store.ClearCompleted(cmd.Context())
				case failedOnly:
					removed, err = store.ClearFailed(cmd.Context())
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d tasks\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completedOnly, "completed", false, "Only clear completed tasks")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only clear failed tasks")
	return cmd
}
