// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import "time"

// SourceKind says where an input's frames or samples come from.
type SourceKind int

const (
	SourceFile SourceKind = iota
	SourceSyntheticColor
)

func (k SourceKind) String() string {
	if k == SourceSyntheticColor {
		return "synthetic_color"
	}
	return "file"
}

// SyncPolicy controls how the output duration relates to the inputs.
type SyncPolicy int

const (
	// SyncNone lets the engine run until every input ends.
	SyncNone SyncPolicy = iota
	// SyncShortestStream caps the output at the shortest input stream.
	SyncShortestStream
)

func (s SyncPolicy) String() string {
	if s == SyncShortestStream {
		return "shortest_stream"
	}
	return "none"
}

// ColorSource describes a generated solid-color video stream.
type ColorSource struct {
	Color    string
	Width    int
	Height   int
	Duration time.Duration
}

// InputSpec is one ordered input of a job.
type InputSpec struct {
	Kind SourceKind
	// Path is set for SourceFile.
	Path string
	// Color is set for SourceSyntheticColor.
	Color *ColorSource
	// LoopToOutputDuration repeats the input (a still image) indefinitely.
	LoopToOutputDuration bool
}

// OutputOptions are the codec and container directives of a job.
type OutputOptions struct {
	Container   string
	VideoCodec  string
	AudioCodec  string
	PixelFormat string // empty keeps the source format
	FastStart   bool
}

// JobDescriptor is the declarative, engine-agnostic description of one encode.
// It is built once per request and must not be modified afterwards.
type JobDescriptor struct {
	ID         string
	Pipeline   Pipeline
	Inputs     []InputSpec
	Output     OutputOptions
	OutputPath string
	Sync       SyncPolicy
}

// OutputName is the storage-relative name of the published file.
func (d JobDescriptor) OutputName() string {
	return d.ID + OutputExt
}
