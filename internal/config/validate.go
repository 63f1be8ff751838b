// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks cross-field constraints and returns all problems at once.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		add("logLevel %q: %w", cfg.LogLevel, err)
	}
	if strings.TrimSpace(cfg.Server.ListenAddr) == "" {
		add("server.listenAddr must not be empty")
	}
	if cfg.Server.MaxConnections < 0 {
		add("server.maxConnections must be >= 0")
	}
	if cfg.Paths.UploadDir == "" || cfg.Paths.OutputDir == "" || cfg.Paths.WorkDir == "" {
		add("paths.uploadDir, paths.outputDir and paths.workDir are required")
	}
	if cfg.Paths.WorkDir != "" && cfg.Paths.WorkDir == cfg.Paths.OutputDir {
		add("paths.workDir must differ from paths.outputDir")
	}
	if strings.TrimSpace(cfg.FFmpeg.Bin) == "" {
		add("ffmpeg.bin must not be empty")
	}
	if cfg.Encode.Timeout < 0 || cfg.Encode.StallTimeout < 0 {
		add("encode timeouts must be >= 0")
	}
	if cfg.Encode.MaxConcurrent < 0 {
		add("encode.maxConcurrent must be >= 0")
	}
	switch cfg.Encode.MixedPolicy {
	case MixedPolicyPreferAudio, MixedPolicyReject:
	default:
		add("encode.mixedPolicy %q: want %q or %q", cfg.Encode.MixedPolicy, MixedPolicyPreferAudio, MixedPolicyReject)
	}
	if cfg.Upload.MaxBytes <= 0 {
		add("upload.maxBytes must be > 0")
	}
	if cfg.Upload.RateLimitPerMinute < 0 {
		add("upload.rateLimitPerMinute must be >= 0")
	}
	switch cfg.Catalog.Backend {
	case CatalogMemory:
	case CatalogSQLite, CatalogBadger:
		if cfg.Catalog.Path == "" {
			add("catalog.path is required for backend %q", cfg.Catalog.Backend)
		}
	case CatalogRedis:
		if cfg.Catalog.RedisAddr == "" {
			add("catalog.redisAddr is required for backend %q", CatalogRedis)
		}
	default:
		add("catalog.backend %q is not supported", cfg.Catalog.Backend)
	}
	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			add("telemetry.exporter %q: want grpc or http", cfg.Telemetry.Exporter)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
