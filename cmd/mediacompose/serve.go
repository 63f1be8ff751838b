// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"os/signal"
	"syscall"

	"github.com/ManuGH/mediacompose/internal/config"
	"github.com/ManuGH/mediacompose/internal/daemon"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/ManuGH/mediacompose/internal/version"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, loader, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			log.Configure(log.Config{
				Level:   cfg.LogLevel,
				Output:  cmd.ErrOrStderr(),
				Service: cfg.LogService,
				Version: version.Version,
			})

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := log.WithComponent("main")
			logger.Info().
				Str("version", version.String()).
				Str("config", loader.Path()).
				Msg("starting mediacompose")

			app, err := daemon.Bootstrap(runCtx, config.NewHolder(cfg, loader))
			if err != nil {
				return err
			}
			return app.Run(runCtx)
		},
	}
}
