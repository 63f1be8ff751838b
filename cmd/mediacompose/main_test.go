// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "paths:\n" +
		"  uploadDir: " + filepath.Join(dir, "uploads") + "\n" +
		"  outputDir: " + filepath.Join(dir, "videos") + "\n" +
		"  workDir: " + filepath.Join(dir, "work") + "\n" +
		"upload:\n  maxBytes: 1048576\n  normalizeImages: false\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
}

func TestComposeCommand_ImageOnlyIsRejected(t *testing.T) {
	cfgPath := writeConfig(t)
	img := filepath.Join(t.TempDir(), "cover.png")
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o600))

	_, err := execute(t, "compose", "--config", cfgPath, "--image", img)
	require.Error(t, err)
	assert.Equal(t, compose.MsgNoPrimaryInput, err.Error())
}

func TestComposeCommand_MissingFile(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := execute(t, "compose", "--config", cfgPath, "--audio", filepath.Join(t.TempDir(), "nope.mp3"))
	assert.Error(t, err)
}

func TestJobsList(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs" {
			http.NotFound(w, r)
			return
		}
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jobs":[
			{"id":"abc","status":"success","pipeline":"image_audio_compose","assets":"image+audio","url":"/videos/abc.mp4","duration_ms":1500,"created_at":"2025-03-01T12:00:00Z"},
			{"id":"def","status":"encode_failure","pipeline":"video_passthrough_transcode","assets":"video","reason":"CRASH","duration_ms":20,"created_at":"2025-03-01T11:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "jobs", "list", "--server", srv.URL, "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, "5", gotLimit)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "/videos/abc.mp4")
	assert.Contains(t, out, "CRASH")
	assert.Contains(t, out, "1.5s")

	out, err = execute(t, "jobs", "list", "--server", srv.URL, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "def"`)
}

func TestJobsList_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"mediacompose/validation","title":"Invalid Input","status":400,"code":"INVALID_LIMIT","detail":"limit must be between 1 and 1000","error":"invalid limit"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "jobs", "list", "--server", srv.URL, "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit must be between 1 and 1000")
}

func TestRenderJobs(t *testing.T) {
	assert.Equal(t, "No jobs recorded", renderJobs(nil, false))

	out := renderJobs([]jobRow{{
		ID: "x", Status: "success", Pipeline: "black_background_audio_compose", Assets: "audio",
		URL: "/videos/x.mp4", DurationMS: 250, CreatedAt: time.Now(),
	}}, false)
	assert.Contains(t, out, "black_background_audio_compose")
	assert.Contains(t, out, "250ms")
	assert.NotContains(t, out, "\x1b[", "no color codes without a terminal")
}
