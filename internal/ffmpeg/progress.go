// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"bytes"
	"regexp"
	"strconv"
	"time"

	"github.com/ManuGH/mediacompose/internal/encode"
)

var (
	frameRe = regexp.MustCompile(`frame=\s*(\d+)`)
	timeRe  = regexp.MustCompile(`time=\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)
)

// parseProgress extracts a heartbeat from an ffmpeg stats line such as
// "frame=  250 fps= 50 q=28.0 size=  512kB time=00:00:10.00 bitrate=...".
// Audio-only stats carry time= without frame=.
func parseProgress(line string) (encode.ProgressEvent, bool) {
	var ev encode.ProgressEvent
	found := false
	if m := frameRe.FindStringSubmatch(line); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			ev.Frame = n
			found = true
		}
	}
	if m := timeRe.FindStringSubmatch(line); m != nil {
		h, _ := strconv.Atoi(m[1])
		mnt, _ := strconv.Atoi(m[2])
		sec, _ := strconv.ParseFloat(m[3], 64)
		ev.OutTime = time.Duration(h)*time.Hour +
			time.Duration(mnt)*time.Minute +
			time.Duration(sec*float64(time.Second))
		found = true
	}
	return ev, found
}

// scanStatsLines is a bufio.SplitFunc that ends lines at '\n' or '\r'.
// ffmpeg rewrites its stats line in place using a bare carriage return.
func scanStatsLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
