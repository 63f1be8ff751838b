// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"

	"github.com/ManuGH/mediacompose/internal/config"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/ManuGH/mediacompose/internal/version"
	"github.com/spf13/cobra"
)

type commandContext struct {
	configPath string
	logLevel   string
}

// loadConfig reads the YAML file (if any), .env and the environment.
func (c *commandContext) loadConfig() (config.AppConfig, *config.Loader, error) {
	loader := config.NewLoader(c.configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Service: cfg.LogService, Version: cfg.Version})
	return cfg, loader, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "mediacompose",
		Short:         "Compose uploaded image, audio and video into an H.264/AAC MP4",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log.Configure(log.Config{Level: ctx.logLevel, Output: cmd.ErrOrStderr(), Version: version.Version})
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newComposeCommand(ctx))
	rootCmd.AddCommand(newJobsCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
