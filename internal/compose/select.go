// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import "fmt"

// MixedPolicy decides how a request carrying both audio and video is handled.
type MixedPolicy int

const (
	// PreferAudio applies the audio-driven pipelines and ignores the video.
	PreferAudio MixedPolicy = iota
	// RejectMixed fails the request with a ValidationError.
	RejectMixed
)

func (m MixedPolicy) String() string {
	if m == RejectMixed {
		return "reject"
	}
	return "prefer_audio"
}

// ParseMixedPolicy maps the configuration value onto a MixedPolicy.
func ParseMixedPolicy(s string) (MixedPolicy, error) {
	switch s {
	case "", "prefer_audio":
		return PreferAudio, nil
	case "reject":
		return RejectMixed, nil
	}
	return PreferAudio, fmt.Errorf("unknown mixed policy %q", s)
}

// Selection is the result of pipeline selection.
type Selection struct {
	Pipeline Pipeline
	// VideoIgnored is set when a supplied video was dropped in favour of the
	// audio-driven pipelines.
	VideoIgnored bool
}

// Select maps an asset set onto exactly one pipeline. Rules are evaluated in
// order and the first match wins:
//
//  1. video without audio          -> VideoPassthroughTranscode
//  2. audio with image             -> ImageAudioCompose
//  3. audio without image          -> BlackBackgroundAudioCompose
//  4. neither audio nor video      -> ValidationError
//
// Audio together with video is resolved by policy before rules 2 and 3.
func Select(a AssetSet, policy MixedPolicy) (Selection, error) {
	switch {
	case a.HasVideo() && !a.HasAudio():
		return Selection{Pipeline: VideoPassthroughTranscode}, nil
	case !a.HasAudio():
		return Selection{}, &ValidationError{Msg: MsgNoPrimaryInput}
	case a.HasVideo() && policy == RejectMixed:
		return Selection{}, &ValidationError{Msg: MsgMixedRejected}
	}

	sel := Selection{
		Pipeline:     BlackBackgroundAudioCompose,
		VideoIgnored: a.HasVideo(),
	}
	if a.HasImage() {
		sel.Pipeline = ImageAudioCompose
	}
	return sel, nil
}
