// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package upload

import (
	"errors"
	"net/http"
)

var (
	ErrNotMultipart   = errors.New("request is not multipart/form-data")
	ErrTooLarge       = errors.New("upload exceeds size limit")
	ErrDuplicateField = errors.New("more than one file for a field")
	ErrEmptyFile      = errors.New("uploaded file is empty")
	// ErrInvalidImage is returned by NormalizeImage, never by Receive.
	ErrInvalidImage = errors.New("image could not be decoded")
	// ErrStorage wraps server-side failures to persist an upload.
	ErrStorage = errors.New("upload could not be stored")
)

// Classify maps a Receive error to an HTTP status and a metric reason.
func Classify(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrNotMultipart):
		return http.StatusUnsupportedMediaType, "not_multipart"
	case errors.Is(err, ErrDuplicateField):
		return http.StatusBadRequest, "duplicate_field"
	case errors.Is(err, ErrEmptyFile):
		return http.StatusBadRequest, "empty_file"
	case errors.Is(err, ErrStorage):
		return http.StatusInternalServerError, "storage"
	default:
		return http.StatusBadRequest, "malformed"
	}
}
