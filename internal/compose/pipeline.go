// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import "fmt"

// Pipeline is one of the fixed composition strategies.
type Pipeline int

const (
	PipelineUnknown Pipeline = iota
	// VideoPassthroughTranscode re-encodes a supplied video into the output contract.
	VideoPassthroughTranscode
	// ImageAudioCompose loops a still image over the audio track.
	ImageAudioCompose
	// BlackBackgroundAudioCompose places the audio track over a black 1280x720 frame.
	BlackBackgroundAudioCompose
)

// String returns the stable name used in logs, metrics and the catalog.
func (p Pipeline) String() string {
	switch p {
	case VideoPassthroughTranscode:
		return "video_passthrough_transcode"
	case ImageAudioCompose:
		return "image_audio_compose"
	case BlackBackgroundAudioCompose:
		return "black_background_audio_compose"
	default:
		return "unknown"
	}
}

// ParsePipeline is the inverse of Pipeline.String.
func ParsePipeline(s string) (Pipeline, error) {
	for _, p := range []Pipeline{VideoPassthroughTranscode, ImageAudioCompose, BlackBackgroundAudioCompose} {
		if p.String() == s {
			return p, nil
		}
	}
	return PipelineUnknown, fmt.Errorf("unknown pipeline %q", s)
}

func (p Pipeline) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pipeline) UnmarshalText(b []byte) error {
	v, err := ParsePipeline(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
