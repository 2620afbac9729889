package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"colorforge/internal/orchestrator"
)

func newPopulateCommand(ctx *commandContext) *cobra.Command {
	var opts orchestrator.PopulateOptions

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Fill the render queue with missing color combinations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd.Context(), func(svc *services) error {
				result, err := svc.orch.Populate(cmd.Context(), opts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Models:              %d\n", result.Models)
				fmt.Fprintf(out, "Existing tasks:      %d\n", result.Existing)
				fmt.Fprintf(out, "New tasks inserted:  %d\n", result.Inserted)
				if opts.RetryFailed {
					fmt.Fprintf(out, "Failed tasks reset:  %d\n", result.Reset)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Models, "models", nil, "Restrict population to these models")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Render width for new tasks (default from config)")
	cmd.Flags().BoolVar(&opts.RetryFailed, "retry-failed", false, "Return retryable failed tasks to pending before populating")
	return cmd
}
