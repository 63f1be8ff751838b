// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ffmpeg renders job descriptors into ffmpeg invocations and runs
// them as supervised child processes.
package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/encode"
)

// Args converts a job into ffmpeg flags. Input order follows the
// descriptor; the output always goes to the job's temporary path.
func Args(job encode.Job) []string {
	d := job.Descriptor
	args := []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "info"}

	for _, in := range d.Inputs {
		args = append(args, inputArgs(in)...)
	}

	out := d.Output
	args = append(args, "-c:v", out.VideoCodec, "-c:a", out.AudioCodec)
	if d.Sync == compose.SyncShortestStream {
		args = append(args, "-shortest")
	}
	if out.PixelFormat != "" {
		args = append(args, "-pix_fmt", out.PixelFormat)
	}
	if out.FastStart {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-f", out.Container, job.OutputTemp)
	return args
}

func inputArgs(in compose.InputSpec) []string {
	var args []string
	if in.LoopToOutputDuration {
		args = append(args, "-loop", "1")
	}
	switch in.Kind {
	case compose.SourceSyntheticColor:
		args = append(args, "-f", "lavfi", "-i", colorFilter(in.Color))
	default:
		args = append(args, "-i", in.Path)
	}
	return args
}

// colorFilter renders a lavfi color source, e.g.
// color=size=1280x720:duration=9999:color=black.
func colorFilter(c *compose.ColorSource) string {
	if c == nil {
		c = &compose.ColorSource{
			Color:    compose.BackgroundColor,
			Width:    compose.BackgroundWidth,
			Height:   compose.BackgroundHeight,
			Duration: compose.BackgroundDuration,
		}
	}
	return fmt.Sprintf("color=size=%dx%d:duration=%s:color=%s",
		c.Width, c.Height, strconv.FormatFloat(c.Duration.Seconds(), 'f', -1, 64), c.Color)
}
