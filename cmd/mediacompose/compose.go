// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/config"
	"github.com/ManuGH/mediacompose/internal/daemon"
	"github.com/ManuGH/mediacompose/internal/ffmpeg"
	"github.com/ManuGH/mediacompose/internal/result"
	"github.com/ManuGH/mediacompose/internal/upload"
	"github.com/spf13/cobra"
)

type composeOptions struct {
	audio, image, video string
	verify              bool
	json                bool
}

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var opts composeOptions
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose local files into a video without the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			return runCompose(cmd, cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.audio, "audio", "", "Audio file")
	cmd.Flags().StringVar(&opts.image, "image", "", "Still image file")
	cmd.Flags().StringVar(&opts.video, "video", "", "Video file")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "Probe the published file and check it against the output contract")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the result as JSON")
	return cmd
}

func runCompose(cmd *cobra.Command, cfg config.AppConfig, opts composeOptions) error {
	assets, err := localAssets(opts)
	if err != nil {
		return err
	}

	if _, err := config.EnsureDirs(cfg.Paths); err != nil {
		return err
	}
	core, err := daemon.NewCore(cfg, nil)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcome, composeErr := core.Service.Compose(runCtx, assets)
	mapper := result.Mapper{
		PublicPrefix: cfg.PublicPrefix,
		Scrubber:     result.NewScrubber(cfg.Paths.UploadDir, cfg.Paths.OutputDir, cfg.Paths.WorkDir),
	}
	resp := mapper.Map(outcome, composeErr)

	if resp.Success != nil && opts.verify {
		if err := verifyOutput(cmd, cfg, outcome); err != nil {
			return err
		}
	}

	if opts.json {
		var body any = resp.Failure
		if resp.Success != nil {
			body = resp.Success
		}
		if err := writeJSON(cmd, body); err != nil {
			return err
		}
	} else if resp.Success != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n",
			outcome.ID, outcome.Pipeline, filepath.Join(cfg.Paths.OutputDir, outcome.Locator), outcome.Duration.Round(time.Millisecond))
	}

	if resp.Failure == nil {
		return nil
	}
	if composeErr != nil && resp.Category == result.CategoryInternal {
		return composeErr
	}
	if resp.Failure.Detail != "" {
		return fmt.Errorf("%s (%s): %s", resp.Failure.Error, outcome.Reason, resp.Failure.Detail)
	}
	return errors.New(resp.Failure.Error)
}

// localAssets turns the flag paths into an AssetSet.
func localAssets(opts composeOptions) (compose.AssetSet, error) {
	var set compose.AssetSet
	ref := func(p string) (*compose.FileRef, error) {
		if p == "" {
			return nil, nil
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		fi, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() || fi.Size() == 0 {
			return nil, fmt.Errorf("%s: not a non-empty file", p)
		}
		return &compose.FileRef{Path: abs, OriginalName: upload.OriginalName(filepath.Base(abs))}, nil
	}

	var err error
	if set.Audio, err = ref(opts.audio); err != nil {
		return set, err
	}
	if set.Video, err = ref(opts.video); err != nil {
		return set, err
	}
	if set.Image, err = ref(opts.image); err != nil {
		return set, err
	}
	return set, nil
}

func verifyOutput(cmd *cobra.Command, cfg config.AppConfig, o compose.JobOutcome) error {
	prober := ffmpeg.NewProber(cfg.FFmpeg.FFprobeBin)
	info, err := prober.Probe(cmd.Context(), filepath.Join(cfg.Paths.OutputDir, o.Locator))
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if err := ffmpeg.VerifyContract(info, compose.OutputFor(o.Pipeline)); err != nil {
		return fmt.Errorf("verify %s: %w", o.Locator, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "verified %s: %s %dx%d, %s\n", o.Locator,
		info.Video.Codec, info.Video.Width, info.Video.Height, info.Duration)
	return nil
}
