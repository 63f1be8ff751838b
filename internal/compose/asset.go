// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import "strings"

// FileRef points to a fully written upload. The core reads it and never
// deletes or renames it.
type FileRef struct {
	Path         string
	OriginalName string
}

// AssetSet records which inputs one request supplied.
type AssetSet struct {
	Image *FileRef
	Audio *FileRef
	Video *FileRef
}

func (a AssetSet) HasImage() bool { return a.Image != nil }
func (a AssetSet) HasAudio() bool { return a.Audio != nil }
func (a AssetSet) HasVideo() bool { return a.Video != nil }

// String lists the present kinds, e.g. "image+audio", or "none".
func (a AssetSet) String() string {
	var parts []string
	if a.HasImage() {
		parts = append(parts, "image")
	}
	if a.HasAudio() {
		parts = append(parts, "audio")
	}
	if a.HasVideo() {
		parts = append(parts, "video")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}
