package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"colorforge/internal/generator"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var req generator.Request

	cmd := &cobra.Command{
		Use:   "generate MODEL",
		Short: "Render and upload a single product image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Model = args[0]
			return ctx.withServices(cmd.Context(), func(svc *services) error {
				result, err := svc.gen.Generate(cmd.Context(), req)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if result.Exists {
					fmt.Fprintln(out, "Already generated:")
				} else {
					fmt.Fprintf(out, "Generated %d bytes in %s:\n", result.SizeBytes, result.Duration.Round(time.Millisecond))
				}
				fmt.Fprintln(out, result.URL)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Primary, "primary", "", "Primary cabinet color (default "+generator.DefaultPrimary+")")
	cmd.Flags().StringVar(&req.Accent, "accent", "", "Accent striping color (default "+generator.DefaultAccent+")")
	cmd.Flags().StringVar(&req.LED, "leds", "", "LED glow color (default "+generator.DefaultLED+")")
	cmd.Flags().IntVar(&req.Width, "width", 0, "Output width in pixels (default from config)")
	return cmd
}
