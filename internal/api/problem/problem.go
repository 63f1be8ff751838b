// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package problem writes RFC 7807 problem detail responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/ManuGH/mediacompose/internal/log"
)

const (
	// HeaderRequestID carries the correlation ID on requests and responses.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the problem member holding the correlation ID.
	JSONKeyRequestID = "request_id"
	// ContentType is the media type of problem responses.
	ContentType = "application/problem+json"
)

// Problem types.
const (
	TypeValidation  = "mediacompose/validation"
	TypeEncode      = "mediacompose/encode_failure"
	TypeInternal    = "mediacompose/internal"
	TypeUpload      = "mediacompose/upload"
	TypeNotFound    = "mediacompose/not_found"
	TypeRateLimited = "mediacompose/rate_limited"
)

// Write writes an RFC 7807 problem details response.
//
//   - type: canonical machine identifier (e.g. "mediacompose/validation").
//   - title: short human-readable label.
//   - code: stable machine-readable code (e.g. "VALIDATION_FAILED").
//   - detail: explanation of this occurrence.
//
// Extra members are added at top level; the legacy "error" member used by
// older clients travels this way. Reserved members cannot be overridden.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	reqID := ""
	instance := ""
	if r != nil {
		reqID = log.RequestIDFromContext(r.Context())
		instance = r.URL.EscapedPath()
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
	}
	if detail != "" {
		res["detail"] = detail
	}
	if instance != "" {
		res["instance"] = instance
	}

	for k, v := range extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", JSONKeyRequestID:
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	if reqID != "" {
		w.Header().Set(HeaderRequestID, reqID)
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().
			Err(err).
			Str("type", problemType).
			Int("status", status).
			Msg("failed to encode problem response")
	}
}
