package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"colorforge/internal/config"
	"colorforge/internal/tasks"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showBatches int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue progress and recent batch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *tasks.Store) error {
				stats, err := store.TaskStats(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				fmt.Fprintln(out, renderProgressBar(stats.PercentComplete(), colorize))
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Tasks"},
					[][]string{
						{"pending", strconv.Itoa(stats.Pending)},
						{"processing", strconv.Itoa(stats.Processing)},
						{"completed", strconv.Itoa(stats.Completed)},
						{"failed", renderFailureCount(stats.Failed, colorize)},
						{"total", strconv.Itoa(stats.Total())},
					},
					[]columnAlignment{alignLeft, alignRight},
				))

				if showBatches <= 0 {
					return nil
				}
				batches, err := store.RecentBatches(cmd.Context(), showBatches)
				if err != nil {
					return err
				}
				if len(batches) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(batches))
				for _, batch := range batches {
					rows = append(rows, []string{
						batch.ID,
						string(batch.Status),
						strconv.Itoa(batch.CompletedTasks),
						renderFailureCount(batch.FailedTasks, colorize),
						fmt.Sprintf("%.2f", batch.ImagesPerSecond),
						batch.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"Batch", "Status", "Completed", "Failed", "Img/s", "Started"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&showBatches, "batches", 5, "How many recent batch runs to list (0 hides them)")
	return cmd
}
