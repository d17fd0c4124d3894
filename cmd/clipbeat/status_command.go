package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipbeat/internal/config"
	"clipbeat/internal/deps"
	"clipbeat/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workspace configuration and queue health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Workspace", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprint(out, renderTable([]string{"Setting", "Value"}, [][]string{
					{"workspace_dir", cfg.Paths.WorkspaceDir},
					{"output_dir", cfg.Paths.OutputDir},
					{"log_dir", cfg.Paths.LogDir},
					{"max_concurrent_jobs", strconv.Itoa(cfg.Workflow.MaxConcurrentJobs)},
					{"retention_hours", strconv.Itoa(cfg.Workflow.RetentionHours)},
				}))

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				depRows := make([][]string, 0, 4)
				for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
					state := "ok"
					if !status.Available {
						state = status.Detail
						if status.Optional {
							state += " (optional)"
						}
					}
					depRows = append(depRows, []string{status.Name, status.Command, state})
				}
				fmt.Fprint(out, renderTable([]string{"Tool", "Command", "State"}, depRows))

				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprint(out, renderTable([]string{"Metric", "Count"}, [][]string{
					{"total", strconv.Itoa(health.Total)},
					{"pending", strconv.Itoa(health.Pending)},
					{"processing", strconv.Itoa(health.Processing)},
					{"completed", strconv.Itoa(health.Completed)},
					{"failed", strconv.Itoa(health.Failed)},
					{"cancelled", strconv.Itoa(health.Cancelled)},
				}, 1))
				return nil
			})
		},
	}
}
