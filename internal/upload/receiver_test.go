// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package upload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filePart struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, files []filePart, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestReceiver(t *testing.T, cfg Config) (*Receiver, string) {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	n := 0
	rc := NewReceiver(cfg)
	rc.newID = func() string {
		n++
		return "id" + string(rune('0'+n))
	}
	return rc, cfg.Dir
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestReceive_ImageAndAudio(t *testing.T) {
	rc, dir := newTestReceiver(t, Config{})
	req := multipartRequest(t, []filePart{
		{field: "image", name: "cover.PNG", data: pngBytes(t, 4, 4)},
		{field: "audio", name: "Cafe\u0301.mp3", data: []byte("ID3")},
	}, map[string]string{"title": "ignored"})

	set, err := rc.Receive(httptest.NewRecorder(), req)
	require.NoError(t, err)

	require.NotNil(t, set.Image)
	require.NotNil(t, set.Audio)
	assert.Nil(t, set.Video)
	assert.Equal(t, filepath.Join(dir, "id1.png"), set.Image.Path)
	assert.Equal(t, filepath.Join(dir, "id2.mp3"), set.Audio.Path)
	assert.Equal(t, "Caf\u00e9.mp3", set.Audio.OriginalName)
	assert.ElementsMatch(t, []string{"id1.png", "id2.mp3"}, dirEntries(t, dir), "no temporary files remain")
}

func TestReceive_LegacyImageFieldAndUnknownFields(t *testing.T) {
	rc, _ := newTestReceiver(t, Config{})
	req := multipartRequest(t, []filePart{
		{field: "mainImg", name: "cover.png", data: pngBytes(t, 2, 2)},
		{field: "subtitle", name: "subs.srt", data: []byte("1")},
	}, nil)

	set, err := rc.Receive(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.NotNil(t, set.Image)
	assert.Equal(t, "image", set.String())
}

func TestReceive_DuplicateFieldRemovesFiles(t *testing.T) {
	rc, dir := newTestReceiver(t, Config{})
	req := multipartRequest(t, []filePart{
		{field: "audio", name: "a.mp3", data: []byte("a")},
		{field: "audio", name: "b.mp3", data: []byte("b")},
	}, nil)

	_, err := rc.Receive(httptest.NewRecorder(), req)
	require.ErrorIs(t, err, ErrDuplicateField)
	assert.Empty(t, dirEntries(t, dir))
}

func TestReceive_EmptyFile(t *testing.T) {
	rc, dir := newTestReceiver(t, Config{})
	req := multipartRequest(t, []filePart{{field: "video", name: "clip.mp4"}}, nil)

	_, err := rc.Receive(httptest.NewRecorder(), req)
	require.ErrorIs(t, err, ErrEmptyFile)
	assert.Empty(t, dirEntries(t, dir))
}

func TestReceive_SizeLimit(t *testing.T) {
	rc, dir := newTestReceiver(t, Config{MaxBytes: 512})
	files := []filePart{{field: "audio", name: "a.mp3", data: bytes.Repeat([]byte("x"), 4096)}}

	_, err := rc.Receive(httptest.NewRecorder(), multipartRequest(t, files, nil))
	require.ErrorIs(t, err, ErrTooLarge, "declared length")

	req := multipartRequest(t, files, nil)
	req.ContentLength = -1
	_, err = rc.Receive(httptest.NewRecorder(), req)
	require.ErrorIs(t, err, ErrTooLarge, "streamed body")
	assert.Empty(t, dirEntries(t, dir))
}

func TestReceive_NotMultipart(t *testing.T) {
	rc, _ := newTestReceiver(t, Config{})
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString(`{"audio":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	_, err := rc.Receive(httptest.NewRecorder(), req)
	assert.ErrorIs(t, err, ErrNotMultipart)
}

func TestReceive_KeepsUndecodableImage(t *testing.T) {
	rc, dir := newTestReceiver(t, Config{})
	req := multipartRequest(t, []filePart{
		{field: "video", name: "clip.mov", data: []byte("moov")},
		{field: "image", name: "cover.heic", data: []byte("ftypheic not decodable")},
	}, nil)

	set, err := rc.Receive(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.NotNil(t, set.Video)
	require.NotNil(t, set.Image)
	assert.Equal(t, "image+video", set.String())
	assert.ElementsMatch(t, []string{"id1.mov", "id2.heic"}, dirEntries(t, dir))
}

func newTestNormalizer(dir string) *ImageNormalizer {
	n := NewImageNormalizer(dir)
	n.newID = func() string { return "norm" }
	return n
}

func TestImageNormalizer_PrepareImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "odd.png")
	require.NoError(t, os.WriteFile(src, pngBytes(t, 5, 3), 0o600))

	prepared, release, err := newTestNormalizer(dir).PrepareImage(context.Background(),
		compose.FileRef{Path: src, OriginalName: "odd.png"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "norm.png"), prepared.Path)
	assert.Equal(t, "odd.png", prepared.OriginalName)

	img, err := imaging.Open(prepared.Path)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	release()
	assert.ElementsMatch(t, []string{"odd.png"}, dirEntries(t, dir), "original kept, copy removed")
}

func TestImageNormalizer_Undecodable(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cover.heic")
	require.NoError(t, os.WriteFile(src, []byte("ftypheic not decodable"), 0o600))

	_, release, err := newTestNormalizer(dir).PrepareImage(context.Background(), compose.FileRef{Path: src})
	require.ErrorIs(t, err, ErrInvalidImage)
	assert.Nil(t, release)
	assert.ElementsMatch(t, []string{"cover.heic"}, dirEntries(t, dir))
}

func TestOriginalName(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd":     "passwd",
		`C:\Users\me\song.mp3`: "song.mp3",
		"e\u0301t\u00e9.wav":   "\u00e9t\u00e9.wav",
		"bad\x00name\n.mp3":    "badname.mp3",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, OriginalName(in), "%q", in)
	}
}

func TestSafeExt(t *testing.T) {
	assert.Equal(t, ".mp3", safeExt("a.MP3"))
	assert.Equal(t, "", safeExt("noext"))
	assert.Equal(t, "", safeExt("x.m p3"))
	assert.Equal(t, "", safeExt("x.verylongextension"))
}

func TestClassify(t *testing.T) {
	status, reason := Classify(ErrTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "too_large", reason)

	status, _ = Classify(ErrNotMultipart)
	assert.Equal(t, http.StatusUnsupportedMediaType, status)

	status, reason = Classify(fmt.Errorf("%w: disk full", ErrStorage))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "storage", reason)
}
