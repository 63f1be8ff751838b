// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

const (
	MixedPolicyPreferAudio = "prefer_audio"
	MixedPolicyReject      = "reject"

	CatalogMemory = "memory"
	CatalogSQLite = "sqlite"
	CatalogBadger = "badger"
	CatalogRedis  = "redis"

	defaultPort = "3000"
)

// Defaults returns the baseline configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "mediacompose",
		Server: ServerConfig{
			ListenAddr:      ":" + defaultPort,
			ReadTimeout:     5 * time.Minute,
			WriteTimeout:    45 * time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1 << 20,
		},
		Paths: PathsConfig{
			UploadDir: "uploads",
			OutputDir: "public/videos",
			WorkDir:   "work",
		},
		FFmpeg: FFmpegConfig{
			Bin: "ffmpeg",
		},
		Encode: EncodeConfig{
			Timeout:      30 * time.Minute,
			StallTimeout: 60 * time.Second,
			MixedPolicy:  MixedPolicyPreferAudio,
		},
		Upload: UploadConfig{
			MaxBytes:           512 << 20,
			NormalizeImages:    true,
			RateLimitPerMinute: 30,
		},
		Catalog: CatalogConfig{
			Backend: CatalogMemory,
			TTL:     7 * 24 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
		PublicPrefix: "/videos",
	}
}
