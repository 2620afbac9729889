package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"colorforge/internal/orchestrator"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts orchestrator.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process pending render tasks in parallel batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd.Context(), func(svc *services) error {
				// One batch run per host; concurrent runs would fight over
				// the same pending rows.
				lockPath := filepath.Join(svc.cfg.Paths.LogDir, "colorforge-run.lock")
				lock := flock.New(lockPath)
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire run lock: %w", err)
				}
				if !ok {
					return errors.New("another batch run is already active on this host")
				}
				defer func() { _ = lock.Unlock() }()

				result, err := svc.orch.Run(cmd.Context(), opts)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Batch:             %s\n", result.BatchID)
				fmt.Fprintf(out, "Completed:         %d\n", result.Completed)
				fmt.Fprintf(out, "Failed:            %d\n", result.Failed)
				fmt.Fprintf(out, "Duration:          %s\n", result.Duration.Round(10*time.Millisecond))
				fmt.Fprintf(out, "Images per second: %.2f\n", result.ImagesPerSecond)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "Tasks per worker sub-batch (default from config)")
	cmd.Flags().IntVar(&opts.MaxParallel, "max-parallel", 0, "Concurrent sub-batches (default from config)")
	cmd.Flags().IntVar(&opts.MaxTasks, "max-tasks", 0, "Stop after this many tasks (0 = drain the queue)")
	return cmd
}
