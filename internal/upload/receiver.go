// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package upload turns multipart requests into typed asset sets. Every file
// is streamed to disk and becomes visible under its final name only once
// fully written.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/ManuGH/mediacompose/internal/metrics"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Multipart field names.
const (
	FieldImage       = "image"
	FieldImageLegacy = "mainImg"
	FieldAudio       = "audio"
	FieldVideo       = "video"
)

const (
	maxExtLen = 8
	maxName   = 255
)

// Config controls a Receiver.
type Config struct {
	Dir      string
	MaxBytes int64
}

// Receiver stores multipart uploads.
type Receiver struct {
	cfg   Config
	newID func() string
}

func NewReceiver(cfg Config) *Receiver {
	return &Receiver{cfg: cfg, newID: uuid.NewString}
}

// Receive reads the multipart body of r into an AssetSet. Unknown fields
// and non-file parts are ignored. File contents are not inspected. On error
// every file written so far is removed.
func (rc *Receiver) Receive(w http.ResponseWriter, r *http.Request) (compose.AssetSet, error) {
	logger := log.WithComponentFromContext(r.Context(), "upload")

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return compose.AssetSet{}, ErrNotMultipart
	}
	if rc.cfg.MaxBytes > 0 {
		if r.ContentLength > rc.cfg.MaxBytes {
			return compose.AssetSet{}, ErrTooLarge
		}
		r.Body = http.MaxBytesReader(w, r.Body, rc.cfg.MaxBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return compose.AssetSet{}, fmt.Errorf("%w: %v", ErrNotMultipart, err)
	}

	var (
		set     compose.AssetSet
		written []string
	)
	fail := func(err error) (compose.AssetSet, error) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) && !errors.Is(err, ErrTooLarge) {
			err = fmt.Errorf("%w: %v", ErrTooLarge, err)
		}
		for _, p := range written {
			if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.Warn().Err(rmErr).Str(log.FieldPath, p).Msg("failed to remove partial upload")
			}
		}
		return compose.AssetSet{}, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("read multipart: %w", err))
		}

		slot := slotFor(&set, part.FormName())
		if slot == nil || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		if *slot != nil {
			_ = part.Close()
			return fail(fmt.Errorf("%w: %s", ErrDuplicateField, part.FormName()))
		}

		ref, err := rc.store(part)
		_ = part.Close()
		if err != nil {
			return fail(err)
		}
		written = append(written, ref.Path)
		*slot = ref
	}

	logger.Debug().Str(log.FieldEvent, "upload.received").Str("assets", set.String()).Msg("upload stored")
	return set, nil
}

// slot returns the AssetSet field for a form field name, or nil if the
// field is not an asset.
func slotFor(s *compose.AssetSet, name string) **compose.FileRef {
	switch name {
	case FieldImage, FieldImageLegacy:
		return &s.Image
	case FieldAudio:
		return &s.Audio
	case FieldVideo:
		return &s.Video
	}
	return nil
}

// store streams one part into the upload directory. Nothing is left on
// disk when it fails.
func (rc *Receiver) store(part *multipart.Part) (*compose.FileRef, error) {
	field := canonicalField(part.FormName())
	dest := filepath.Join(rc.cfg.Dir, rc.newID()+safeExt(part.FileName()))

	pf, err := renameio.NewPendingFile(dest, renameio.WithTempDir(rc.cfg.Dir), renameio.WithPermissions(0o640))
	if err != nil {
		return nil, fmt.Errorf("%w: create file: %w", ErrStorage, err)
	}
	defer func() { _ = pf.Cleanup() }()

	src := &readTracker{r: part}
	n, err := io.Copy(pf, src)
	metrics.UploadBytes.WithLabelValues(field).Add(float64(n))
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, ErrTooLarge
		case src.err == nil:
			return nil, fmt.Errorf("%w: write: %w", ErrStorage, err)
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, part.FormName())
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", ErrStorage, err)
	}
	return &compose.FileRef{Path: dest, OriginalName: OriginalName(part.FileName())}, nil
}

func canonicalField(name string) string {
	if name == FieldImageLegacy {
		return FieldImage
	}
	return name
}

// OriginalName normalizes a client supplied file name for logs and
// catalog records: base name only, NFC, no control characters.
func OriginalName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, norm.NFC.String(name))
	if r := []rune(name); len(r) > maxName {
		name = string(r[:maxName])
	}
	return name
}

// safeExt keeps a short alphanumeric extension so ffmpeg can still use it
// as a format hint.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > maxExtLen+1 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// readTracker remembers the last read error so client failures can be told
// apart from disk failures.
type readTracker struct {
	r   io.Reader
	err error
}

func (t *readTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		t.err = err
	}
	return n, err
}
