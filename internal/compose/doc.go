// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package compose holds the composition core: it turns the set of submitted
// assets into exactly one pipeline, builds the declarative encode job for it
// and hands the job to an Executor.
//
// The flow per request is linear:
//
//	AssetSet -> Select -> Builder.Build -> Executor.Execute -> JobOutcome
//
// Every pipeline converges on the same output contract: MP4 container with
// fast-start layout, H.264 video and AAC audio.
package compose
