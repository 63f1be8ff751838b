// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
)

// ErrContractViolation is returned when a published file does not match the
// output contract.
var ErrContractViolation = errors.New("output contract violated")

const maxProbeStderr = 4096

// StreamInfo is the subset of ffprobe output needed to check a result.
type StreamInfo struct {
	// Formats lists every demuxer name ffprobe matched, e.g. mov,mp4,m4a.
	Formats  []string
	Duration time.Duration
	Video    *VideoStream
	Audio    *AudioStream
}

type VideoStream struct {
	Codec  string
	PixFmt string
	Width  int
	Height int
}

type AudioStream struct {
	Codec      string
	SampleRate int
	Channels   int
}

// Prober runs ffprobe.
type Prober struct {
	BinaryPath string
}

func NewProber(binaryPath string) *Prober {
	if binaryPath == "" {
		binaryPath = "ffprobe"
	}
	return &Prober{BinaryPath: binaryPath}
}

// Probe executes ffprobe and returns stream info for the first video and
// first audio stream.
func (p *Prober) Probe(ctx context.Context, path string) (*StreamInfo, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	// #nosec G204 -- binary comes from config; path is a file we produced
	cmd := exec.CommandContext(ctx, p.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		errStr := stderr.String()
		if len(errStr) > maxProbeStderr {
			errStr = errStr[:maxProbeStderr] + "..."
		}
		return nil, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, strings.TrimSpace(errStr))
	}

	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return data.info()
}

func (data probeData) info() (*StreamInfo, error) {
	if data.Format.FormatName == "" {
		return nil, errors.New("ffprobe returned empty format_name")
	}
	info := &StreamInfo{}
	for _, f := range strings.Split(data.Format.FormatName, ",") {
		if f = strings.TrimSpace(f); f != "" {
			info.Formats = append(info.Formats, f)
		}
	}
	if data.Format.Duration != "" {
		if secs, err := strconv.ParseFloat(data.Format.Duration, 64); err == nil {
			info.Duration = time.Duration(secs * float64(time.Second))
		}
	}

	for _, s := range data.Streams {
		switch s.CodecType {
		case "video":
			if info.Video == nil {
				info.Video = &VideoStream{Codec: s.CodecName, PixFmt: s.PixFmt, Width: s.Width, Height: s.Height}
			}
		case "audio":
			if info.Audio == nil {
				rate, _ := strconv.Atoi(s.SampleRate)
				info.Audio = &AudioStream{Codec: s.CodecName, SampleRate: rate, Channels: s.Channels}
			}
		}
	}
	if info.Video == nil && info.Audio == nil {
		return nil, errors.New("ffprobe returned no playable streams")
	}
	return info, nil
}

// encoderCodecs maps encoder names to the codec name ffprobe reports.
var encoderCodecs = map[string]string{
	"libx264": "h264",
	"aac":     "aac",
}

// VerifyContract checks a probed file against the output options it was
// encoded with.
func VerifyContract(info *StreamInfo, out compose.OutputOptions) error {
	var problems []error
	if !slices.Contains(info.Formats, out.Container) {
		problems = append(problems, fmt.Errorf("container %v, want %s", info.Formats, out.Container))
	}
	if info.Video == nil {
		problems = append(problems, errors.New("no video stream"))
	} else {
		if want := codecName(out.VideoCodec); info.Video.Codec != want {
			problems = append(problems, fmt.Errorf("video codec %s, want %s", info.Video.Codec, want))
		}
		if out.PixelFormat != "" && info.Video.PixFmt != out.PixelFormat {
			problems = append(problems, fmt.Errorf("pixel format %s, want %s", info.Video.PixFmt, out.PixelFormat))
		}
	}
	if info.Audio != nil {
		if want := codecName(out.AudioCodec); info.Audio.Codec != want {
			problems = append(problems, fmt.Errorf("audio codec %s, want %s", info.Audio.Codec, want))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrContractViolation, errors.Join(problems...))
	}
	return nil
}

func codecName(encoder string) string {
	if c, ok := encoderCodecs[encoder]; ok {
		return c
	}
	return encoder
}

type probeData struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		PixFmt     string `json:"pix_fmt,omitempty"`
		Width      int    `json:"width,omitempty"`
		Height     int    `json:"height,omitempty"`
		SampleRate string `json:"sample_rate,omitempty"`
		Channels   int    `json:"channels,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}
