// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/ManuGH/mediacompose/internal/api/problem"
	"github.com/ManuGH/mediacompose/internal/catalog"
	"github.com/ManuGH/mediacompose/internal/fsutil"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/ManuGH/mediacompose/internal/metrics"
	"github.com/ManuGH/mediacompose/internal/result"
	"github.com/ManuGH/mediacompose/internal/telemetry"
	"github.com/ManuGH/mediacompose/internal/upload"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

const maxListLimit = 1000

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for name, check := range s.cfg.ReadinessChecks {
		if err := check(r.Context()); err != nil {
			resp.Checks[name] = s.cfg.Mapper.Scrubber.Strip(err.Error())
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// handleUpload receives the multipart assets and runs one composition. The
// encode is bound to the request context: a client that disconnects
// cancels its encode.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.WithComponentFromContext(ctx, "api")

	assets, err := s.cfg.Receiver.Receive(w, r)
	if err != nil {
		status, reason := upload.Classify(err)
		metrics.UploadRejected.WithLabelValues(reason).Inc()
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str(log.FieldEvent, "upload.failed").Msg("upload could not be stored")
		} else {
			logger.Warn().Err(err).Str(log.FieldEvent, "upload.rejected").Str(log.FieldReason, reason).Msg("upload rejected")
		}
		detail := s.cfg.Mapper.Scrubber.Strip(err.Error())
		problem.Write(w, r, status, problem.TypeUpload, http.StatusText(status), "UPLOAD_"+strings.ToUpper(reason), detail,
			map[string]any{"error": detail})
		return
	}

	outcome, err := s.cfg.Composer.Compose(ctx, assets)
	resp := s.cfg.Mapper.Map(outcome, err)

	span := trace.SpanFromContext(ctx)
	if err != nil {
		span.SetAttributes(telemetry.ErrorAttributes(string(resp.Category))...)
		if resp.Category == result.CategoryInternal {
			logger.Error().Err(err).Str(log.FieldEvent, "compose.internal_error").Msg("composition failed")
		}
	} else {
		span.SetAttributes(telemetry.OutcomeAttributes(outcome)...)
	}
	writeResult(w, r, resp)
}

var problemTypes = map[result.Category]struct{ typ, title string }{
	result.CategoryValidation: {problem.TypeValidation, "Invalid Input"},
	result.CategoryEncode:     {problem.TypeEncode, "Encoding Failed"},
	result.CategoryInternal:   {problem.TypeInternal, "Internal Server Error"},
}

func writeResult(w http.ResponseWriter, r *http.Request, resp result.Response) {
	if resp.Success != nil {
		writeJSON(w, resp.Status, resp.Success)
		return
	}
	pt := problemTypes[resp.Category]
	detail := resp.Failure.Detail
	if detail == "" && resp.Category == result.CategoryValidation {
		detail = resp.Failure.Error
	}
	extra := map[string]any{"error": resp.Failure.Error}
	problem.Write(w, r, resp.Status, pt.typ, pt.title, resp.Code, detail, extra)
}

type jobView struct {
	catalog.Record
	URL string `json:"url,omitempty"`
}

func (s *Server) view(rec catalog.Record) jobView {
	v := jobView{Record: rec}
	if rec.Locator != "" {
		v.URL = s.cfg.Mapper.URL(rec.Locator)
	}
	return v
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.cfg.Catalog == nil {
		writeNotFound(w, r, "job catalog is disabled")
		return
	}
	rec, err := s.cfg.Catalog.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeNotFound(w, r, "no job with id "+id)
		return
	}
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldJobID, id).Msg("catalog lookup failed")
		writeInternal(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.view(rec))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := catalog.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid Input", "INVALID_LIMIT",
				"limit must be between 1 and 1000", map[string]any{"error": "invalid limit"})
			return
		}
		limit = n
	}

	views := []jobView{}
	if s.cfg.Catalog != nil {
		recs, err := s.cfg.Catalog.List(r.Context(), limit)
		if err != nil {
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Error().Err(err).Msg("catalog list failed")
			writeInternal(w, r)
			return
		}
		for _, rec := range recs {
			views = append(views, s.view(rec))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": views})
}

// videoHandler serves published files. Names are confined to OutputDir,
// symlinks included, and directory listings are never exposed.
func (s *Server) videoHandler(prefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, prefix+"/")
		if name == "" || strings.HasSuffix(name, "/") {
			s.handleNotFound(w, r)
			return
		}
		f, fi, err := fsutil.OpenRegular(s.cfg.OutputDir, name)
		if err != nil {
			s.handleNotFound(w, r)
			return
		}
		defer func() { _ = f.Close() }()
		if strings.EqualFold(path.Ext(name), ".mp4") {
			w.Header().Set("Content-Type", "video/mp4")
		}
		http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeNotFound(w, r, "")
}

func writeNotFound(w http.ResponseWriter, r *http.Request, detail string) {
	problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not Found", "NOT_FOUND", detail,
		map[string]any{"error": "not found"})
}

func writeInternal(w http.ResponseWriter, r *http.Request) {
	problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal Server Error", "INTERNAL_ERROR", "",
		map[string]any{"error": result.ErrorInternal})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Msg("failed to encode response")
	}
}
