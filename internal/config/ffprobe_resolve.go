// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveFFprobeBin returns the ffprobe binary to use: the explicit value if
// set, otherwise a sibling of a concrete ffmpeg path, otherwise "ffprobe".
func ResolveFFprobeBin(ffprobeBin, ffmpegBin string) string {
	return resolveFFprobeBin(ffprobeBin, ffmpegBin, os.Stat)
}

func resolveFFprobeBin(ffprobeBin, ffmpegBin string, stat func(string) (os.FileInfo, error)) string {
	if v := strings.TrimSpace(ffprobeBin); v != "" {
		return v
	}
	ffmpegBin = strings.TrimSpace(ffmpegBin)
	if strings.ContainsRune(ffmpegBin, os.PathSeparator) && filepath.Base(ffmpegBin) == "ffmpeg" {
		candidate := filepath.Join(filepath.Dir(ffmpegBin), "ffprobe")
		if fi, err := stat(candidate); err == nil && !fi.IsDir() {
			return candidate
		}
	}
	return "ffprobe"
}
