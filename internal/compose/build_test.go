// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID(id string) BuilderOption {
	return WithIDGenerator(func() string { return id })
}

func TestBuild_Descriptors(t *testing.T) {
	out := t.TempDir()
	withPixFmt := Contract
	withPixFmt.PixelFormat = "yuv420p"

	tests := []struct {
		name     string
		pipeline Pipeline
		assets   AssetSet
		want     JobDescriptor
	}{
		{
			name:     "passthrough",
			pipeline: VideoPassthroughTranscode,
			assets:   AssetSet{Video: ref("clip.mov")},
			want: JobDescriptor{
				ID:         "job-1",
				Pipeline:   VideoPassthroughTranscode,
				Inputs:     []InputSpec{{Kind: SourceFile, Path: "/uploads/clip.mov"}},
				Output:     Contract,
				OutputPath: filepath.Join(out, "job-1.mp4"),
				Sync:       SyncNone,
			},
		},
		{
			name:     "image and audio",
			pipeline: ImageAudioCompose,
			assets:   AssetSet{Audio: ref("song.mp3"), Image: ref("cover.png")},
			want: JobDescriptor{
				ID:       "job-1",
				Pipeline: ImageAudioCompose,
				Inputs: []InputSpec{
					{Kind: SourceFile, Path: "/uploads/cover.png", LoopToOutputDuration: true},
					{Kind: SourceFile, Path: "/uploads/song.mp3"},
				},
				Output:     withPixFmt,
				OutputPath: filepath.Join(out, "job-1.mp4"),
				Sync:       SyncShortestStream,
			},
		},
		{
			name:     "black background",
			pipeline: BlackBackgroundAudioCompose,
			assets:   AssetSet{Audio: ref("song.mp3")},
			want: JobDescriptor{
				ID:       "job-1",
				Pipeline: BlackBackgroundAudioCompose,
				Inputs: []InputSpec{
					{Kind: SourceSyntheticColor, Color: &ColorSource{
						Color: "black", Width: 1280, Height: 720, Duration: BackgroundDuration,
					}},
					{Kind: SourceFile, Path: "/uploads/song.mp3"},
				},
				Output:     withPixFmt,
				OutputPath: filepath.Join(out, "job-1.mp4"),
				Sync:       SyncShortestStream,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBuilder(out, fixedID("job-1")).Build(tt.pipeline, tt.assets)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_OutputContractIsUniform(t *testing.T) {
	b := NewBuilder(t.TempDir())
	all := AssetSet{Audio: ref("a"), Image: ref("i"), Video: ref("v")}
	for _, p := range []Pipeline{VideoPassthroughTranscode, ImageAudioCompose, BlackBackgroundAudioCompose} {
		d, err := b.Build(p, all)
		require.NoError(t, err)
		assert.Equal(t, "mp4", d.Output.Container, p.String())
		assert.Equal(t, "libx264", d.Output.VideoCodec, p.String())
		assert.Equal(t, "aac", d.Output.AudioCodec, p.String())
		assert.True(t, d.Output.FastStart, p.String())
		assert.Equal(t, ".mp4", filepath.Ext(d.OutputPath))
		assert.Equal(t, OutputFor(p), d.Output, p.String())
	}
	assert.Empty(t, OutputFor(VideoPassthroughTranscode).PixelFormat)
	assert.Equal(t, "yuv420p", OutputFor(BlackBackgroundAudioCompose).PixelFormat)
}

func TestBuild_IdentifiersNeverCollide(t *testing.T) {
	b := NewBuilder(t.TempDir())
	a := AssetSet{Audio: ref("song.mp3")}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		d, err := b.Build(BlackBackgroundAudioCompose, a)
		require.NoError(t, err)
		require.False(t, seen[d.OutputPath], "duplicate output path %s", d.OutputPath)
		seen[d.OutputPath] = true
	}
}

func TestBuild_MissingInputIsInternalError(t *testing.T) {
	b := NewBuilder(t.TempDir())
	_, err := b.Build(ImageAudioCompose, AssetSet{Audio: ref("a")})
	require.Error(t, err)
	assert.True(t, IsInternal(err))
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = b.Build(PipelineUnknown, AssetSet{Audio: ref("a")})
	assert.True(t, IsInternal(err))
}

func TestBuild_RefusesExistingOutput(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "taken.mp4"), []byte("x"), 0o600))

	_, err := NewBuilder(out, fixedID("taken")).Build(VideoPassthroughTranscode, AssetSet{Video: ref("v")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutputExists)
}
