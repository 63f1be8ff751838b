// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// OutputExt is the extension of every published file.
const OutputExt = ".mp4"

// Black background geometry. The nominal duration only has to outlast any
// audio track; ShortestStream truncates it.
const (
	BackgroundWidth    = 1280
	BackgroundHeight   = 720
	BackgroundColor    = "black"
	BackgroundDuration = 9999 * time.Second
)

// Contract is the output contract shared by all pipelines.
var Contract = OutputOptions{
	Container:  "mp4",
	VideoCodec: "libx264",
	AudioCodec: "aac",
	FastStart:  true,
}

// generatedPixelFormat is applied whenever the video stream is generated
// rather than transcoded from a supplied video.
const generatedPixelFormat = "yuv420p"

// OutputFor returns the output options a descriptor of p is built with.
func OutputFor(p Pipeline) OutputOptions {
	out := Contract
	if p == ImageAudioCompose || p == BlackBackgroundAudioCompose {
		out.PixelFormat = generatedPixelFormat
	}
	return out
}

// Builder turns a selected pipeline and its files into a JobDescriptor.
type Builder struct {
	outputDir string
	newID     func() string
	stat      func(string) (os.FileInfo, error)
}

// BuilderOption customises a Builder.
type BuilderOption func(*Builder)

// WithIDGenerator replaces the random identifier source.
func WithIDGenerator(fn func() string) BuilderOption {
	return func(b *Builder) { b.newID = fn }
}

// NewBuilder creates a Builder that places outputs in outputDir.
func NewBuilder(outputDir string, opts ...BuilderOption) *Builder {
	b := &Builder{
		outputDir: outputDir,
		newID:     func() string { return uuid.NewString() },
		stat:      os.Stat,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build creates the descriptor for p. It has no side effects; the only
// filesystem access is a check that the generated output path is unused.
func (b *Builder) Build(p Pipeline, a AssetSet) (JobDescriptor, error) {
	id := b.newID()
	d := JobDescriptor{
		ID:         id,
		Pipeline:   p,
		Output:     OutputFor(p),
		OutputPath: filepath.Join(b.outputDir, id+OutputExt),
	}

	switch p {
	case VideoPassthroughTranscode:
		if a.Video == nil {
			return JobDescriptor{}, missing(p, "video")
		}
		d.Inputs = []InputSpec{{Kind: SourceFile, Path: a.Video.Path}}
		d.Sync = SyncNone

	case ImageAudioCompose:
		if a.Image == nil {
			return JobDescriptor{}, missing(p, "image")
		}
		if a.Audio == nil {
			return JobDescriptor{}, missing(p, "audio")
		}
		d.Inputs = []InputSpec{
			{Kind: SourceFile, Path: a.Image.Path, LoopToOutputDuration: true},
			{Kind: SourceFile, Path: a.Audio.Path},
		}
		d.Sync = SyncShortestStream

	case BlackBackgroundAudioCompose:
		if a.Audio == nil {
			return JobDescriptor{}, missing(p, "audio")
		}
		d.Inputs = []InputSpec{
			{Kind: SourceSyntheticColor, Color: &ColorSource{
				Color:    BackgroundColor,
				Width:    BackgroundWidth,
				Height:   BackgroundHeight,
				Duration: BackgroundDuration,
			}},
			{Kind: SourceFile, Path: a.Audio.Path},
		}
		d.Sync = SyncShortestStream

	default:
		return JobDescriptor{}, &InternalError{Op: "build", Err: fmt.Errorf("unsupported pipeline %s", p)}
	}

	if _, err := b.stat(d.OutputPath); err == nil {
		return JobDescriptor{}, &InternalError{Op: "build", Err: fmt.Errorf("%w: %s", ErrOutputExists, d.OutputName())}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return JobDescriptor{}, &InternalError{Op: "build", Err: err}
	}
	return d, nil
}

func missing(p Pipeline, kind string) error {
	return &InternalError{Op: "build " + p.String(), Err: fmt.Errorf("%w: %s", ErrMissingInput, kind)}
}
