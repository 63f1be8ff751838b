// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package compose

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ManuGH/mediacompose/internal/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Executor runs one JobDescriptor and reports its terminal outcome.
// Implementations submit the job at most once and never retry.
type Executor interface {
	Execute(ctx context.Context, d JobDescriptor) JobOutcome
}

// Recorder persists outcomes for later lookup. Recording is best-effort.
type Recorder interface {
	RecordOutcome(ctx context.Context, a AssetSet, o JobOutcome) error
}

// ImagePreparer rewrites the still of an ImageAudioCompose job before its
// descriptor is built. release removes whatever PrepareImage wrote.
type ImagePreparer interface {
	PrepareImage(ctx context.Context, img FileRef) (prepared FileRef, release func(), err error)
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Builder  *Builder
	Executor Executor
	Recorder Recorder      // optional
	Images   ImagePreparer // optional
	Policy   MixedPolicy
}

// Service runs the full composition chain for one asset set.
type Service struct {
	builder  *Builder
	executor Executor
	recorder Recorder
	images   ImagePreparer
	policy   atomic.Int32
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		builder:  cfg.Builder,
		executor: cfg.Executor,
		recorder: cfg.Recorder,
		images:   cfg.Images,
	}
	s.policy.Store(int32(cfg.Policy))
	return s
}

// SetMixedPolicy changes the policy for subsequent requests.
func (s *Service) SetMixedPolicy(p MixedPolicy) {
	s.policy.Store(int32(p))
}

// MixedPolicy returns the active policy.
func (s *Service) MixedPolicy() MixedPolicy {
	return MixedPolicy(s.policy.Load())
}

// Compose selects, builds and executes the job for a.
//
// A ValidationError or InternalError is returned as err, in which case the
// engine was not invoked. Engine failures are not errors: they come back as
// an outcome with StatusEncodeFailure.
func (s *Service) Compose(ctx context.Context, a AssetSet) (JobOutcome, error) {
	ctx, span := startSpan(ctx, "compose")
	defer span.End()

	logger := log.WithComponentFromContext(ctx, "compose")

	sel, err := Select(a, s.MixedPolicy())
	emitSelection(ctx, a, sel, err)
	if err != nil {
		logger.Info().
			Str(log.FieldEvent, "compose.rejected").
			Str("assets", a.String()).
			Err(err).
			Msg("asset set rejected")
		return JobOutcome{}, err
	}
	if sel.VideoIgnored {
		logger.Warn().
			Str(log.FieldEvent, "compose.video_ignored").
			Str(log.FieldPipeline, sel.Pipeline.String()).
			Msg("audio and video supplied; video ignored by policy")
	}

	built := a
	if sel.Pipeline == ImageAudioCompose && s.images != nil {
		prepared, release, perr := s.images.PrepareImage(ctx, *a.Image)
		if perr != nil {
			// ffmpeg reads more still formats than the preparer decodes.
			logger.Warn().
				Err(perr).
				Str(log.FieldEvent, "compose.image_prepare_failed").
				Msg("image preparation failed; using original still")
		} else {
			defer release()
			built.Image = &prepared
		}
	}

	d, err := s.builder.Build(sel.Pipeline, built)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Str(log.FieldEvent, "compose.build_failed").Msg("job descriptor construction failed")
		var ie *InternalError
		if !errors.As(err, &ie) {
			err = &InternalError{Op: "build", Err: err}
		}
		return JobOutcome{}, err
	}

	ctx = log.ContextWithJobID(ctx, d.ID)
	span.SetAttributes(attribute.String("mediacompose.job_id", d.ID))

	outcome := s.executor.Execute(ctx, d)
	if !outcome.Succeeded() {
		span.SetStatus(codes.Error, string(outcome.Reason))
	}

	if s.recorder != nil {
		// The request may already be canceled; the record should still land.
		if rerr := s.recorder.RecordOutcome(context.WithoutCancel(ctx), a, outcome); rerr != nil {
			log.FromContext(ctx).Warn().Err(rerr).Str(log.FieldEvent, "compose.record_failed").Msg("failed to record job outcome")
		}
	}
	return outcome, nil
}
