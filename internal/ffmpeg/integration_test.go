// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/encode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireTools(t *testing.T) (string, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping ffmpeg integration test in short mode")
	}
	ffmpegBin, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not installed")
	}
	ffprobeBin, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not installed")
	}
	return ffmpegBin, ffprobeBin
}

func TestIntegration_BlackBackgroundMeetsContract(t *testing.T) {
	ffmpegBin, ffprobeBin := requireTools(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	root := t.TempDir()
	audio := filepath.Join(root, "tone.mp3")
	// #nosec G204 -- test fixture generation
	gen := exec.CommandContext(ctx, ffmpegBin, "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=2", audio)
	out, err := gen.CombinedOutput()
	require.NoError(t, err, string(out))

	outDir := filepath.Join(root, "videos")
	require.NoError(t, os.MkdirAll(outDir, 0o750))
	d, err := compose.NewBuilder(outDir).Build(compose.BlackBackgroundAudioCompose, compose.AssetSet{
		Audio: &compose.FileRef{Path: audio},
	})
	require.NoError(t, err)

	e := encode.NewExecutor(encode.Config{WorkDir: filepath.Join(root, "work"), Runner: NewExecutor(ffmpegBin)})
	o := e.Execute(ctx, d)
	require.True(t, o.Succeeded(), o.ErrorDetail)

	info, err := NewProber(ffprobeBin).Probe(ctx, d.OutputPath)
	require.NoError(t, err)
	require.NoError(t, VerifyContract(info, d.Output))
	assert.Equal(t, compose.BackgroundWidth, info.Video.Width)
	assert.Less(t, info.Duration, 3*time.Second, "output is capped by the audio")
}
