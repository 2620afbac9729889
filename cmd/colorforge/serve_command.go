package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"colorforge/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation and batch HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd.Context(), func(svc *services) error {
				runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				srv := server.New(svc.cfg, svc.gen, svc.orch, svc.store, svc.logger)
				if err := srv.Start(runCtx); err != nil {
					return err
				}
				defer srv.Stop()

				fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", srv.Addr())
				<-runCtx.Done()
				return nil
			})
		},
	}
}
