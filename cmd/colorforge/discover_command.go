package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"colorforge/internal/orchestrator"
	"colorforge/internal/palette"
)

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List renderable models found in the mask library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd.Context(), func(svc *services) error {
				models, err := svc.orch.DiscoverModels(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, model := range models {
					if palette.IsMulticolorLED(model) {
						fmt.Fprintf(out, "%s (multicolor LED)\n", model)
					} else {
						fmt.Fprintln(out, model)
					}
				}
				fmt.Fprintf(out, "%d models, %d combinations each\n", len(models), orchestrator.CombinationsPerModel())
				return nil
			})
		},
	}
}
