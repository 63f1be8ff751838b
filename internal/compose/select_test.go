// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(name string) *FileRef { return &FileRef{Path: "/uploads/" + name, OriginalName: name} }

func TestSelect_DecisionTable(t *testing.T) {
	tests := []struct {
		name         string
		assets       AssetSet
		policy       MixedPolicy
		want         Pipeline
		videoIgnored bool
		errMsg       string
	}{
		{name: "video only", assets: AssetSet{Video: ref("clip.mov")}, want: VideoPassthroughTranscode},
		{name: "video with image", assets: AssetSet{Video: ref("clip.mov"), Image: ref("c.png")}, want: VideoPassthroughTranscode},
		{name: "audio and image", assets: AssetSet{Audio: ref("song.mp3"), Image: ref("cover.png")}, want: ImageAudioCompose},
		{name: "audio only", assets: AssetSet{Audio: ref("song.mp3")}, want: BlackBackgroundAudioCompose},
		{name: "nothing", assets: AssetSet{}, errMsg: MsgNoPrimaryInput},
		{name: "image only", assets: AssetSet{Image: ref("cover.png")}, errMsg: MsgNoPrimaryInput},
		{
			name:   "all three prefer audio",
			assets: AssetSet{Audio: ref("a.mp3"), Image: ref("i.png"), Video: ref("v.mp4")},
			want:   ImageAudioCompose, videoIgnored: true,
		},
		{
			name:   "audio and video prefer audio",
			assets: AssetSet{Audio: ref("a.mp3"), Video: ref("v.mp4")},
			want:   BlackBackgroundAudioCompose, videoIgnored: true,
		},
		{
			name:   "audio and video rejected",
			assets: AssetSet{Audio: ref("a.mp3"), Video: ref("v.mp4")},
			policy: RejectMixed, errMsg: MsgMixedRejected,
		},
		{
			name:   "reject policy leaves video only alone",
			assets: AssetSet{Video: ref("v.mp4")},
			policy: RejectMixed, want: VideoPassthroughTranscode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := Select(tt.assets, tt.policy)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				assert.Equal(t, tt.errMsg, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel.Pipeline)
			assert.Equal(t, tt.videoIgnored, sel.VideoIgnored)
		})
	}
}

// Every combination of present/absent inputs yields exactly one pipeline or a
// validation error, never both.
func TestSelect_TotalOverAllCombinations(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		a := AssetSet{}
		if mask&1 != 0 {
			a.Image = ref("i")
		}
		if mask&2 != 0 {
			a.Audio = ref("a")
		}
		if mask&4 != 0 {
			a.Video = ref("v")
		}
		for _, policy := range []MixedPolicy{PreferAudio, RejectMixed} {
			sel, err := Select(a, policy)
			if err != nil {
				assert.Equal(t, PipelineUnknown, sel.Pipeline, a.String())
				assert.True(t, IsValidation(err))
				continue
			}
			assert.NotEqual(t, PipelineUnknown, sel.Pipeline, a.String())
		}
	}
}

func TestParseMixedPolicy(t *testing.T) {
	p, err := ParseMixedPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, RejectMixed, p)

	p, err = ParseMixedPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PreferAudio, p)

	_, err = ParseMixedPolicy("merge")
	assert.Error(t, err)
}

func TestPipeline_TextRoundTrip(t *testing.T) {
	for _, p := range []Pipeline{VideoPassthroughTranscode, ImageAudioCompose, BlackBackgroundAudioCompose} {
		b, err := p.MarshalText()
		require.NoError(t, err)
		var got Pipeline
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, p, got)
	}
	var p Pipeline
	assert.Error(t, p.UnmarshalText([]byte("merge")))
}

func TestAssetSet_String(t *testing.T) {
	assert.Equal(t, "none", AssetSet{}.String())
	assert.Equal(t, "image+audio", AssetSet{Image: ref("i"), Audio: ref("a")}.String())
}
