// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the complete runtime configuration.
// Precedence: environment > YAML file > defaults.
type AppConfig struct {
	Version string `yaml:"-"`

	LogLevel   string `yaml:"logLevel"`
	LogService string `yaml:"logService"`

	Server    ServerConfig    `yaml:"server"`
	Paths     PathsConfig     `yaml:"paths"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	Encode    EncodeConfig    `yaml:"encode"`
	Upload    UploadConfig    `yaml:"upload"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// PublicPrefix is the URL prefix under which published videos are served.
	PublicPrefix string `yaml:"publicPrefix"`

	// AllowedOrigins enables CORS for the listed origins ("*" allows all).
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listenAddr"`
	MetricsAddr     string        `yaml:"metricsAddr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes"`
	// MaxConnections bounds simultaneously accepted connections (0 = unbounded).
	MaxConnections int `yaml:"maxConnections"`
}

// PathsConfig lists the directories the service owns.
type PathsConfig struct {
	UploadDir string `yaml:"uploadDir"`
	OutputDir string `yaml:"outputDir"`
	WorkDir   string `yaml:"workDir"`
}

// FFmpegConfig locates the encoding engine binaries.
type FFmpegConfig struct {
	Bin        string `yaml:"bin"`
	FFprobeBin string `yaml:"ffprobeBin"`
}

// EncodeConfig bounds a single encode job.
type EncodeConfig struct {
	// Timeout caps the wall-clock duration of one encode (0 disables).
	Timeout time.Duration `yaml:"timeout"`
	// StallTimeout fails an encode that reports no progress for this long.
	StallTimeout time.Duration `yaml:"stallTimeout"`
	// MaxConcurrent bounds parallel encodes (0 = unbounded).
	MaxConcurrent int `yaml:"maxConcurrent"`
	// MixedPolicy decides what happens when audio and video are both supplied:
	// "prefer_audio" or "reject".
	MixedPolicy string `yaml:"mixedPolicy"`
}

// UploadConfig governs multipart reception.
type UploadConfig struct {
	MaxBytes        int64 `yaml:"maxBytes"`
	NormalizeImages bool  `yaml:"normalizeImages"`
	// RateLimitPerMinute limits compose requests per client IP (0 disables).
	RateLimitPerMinute int `yaml:"rateLimitPerMinute"`
}

// CatalogConfig selects where job outcomes are recorded.
type CatalogConfig struct {
	// Backend is one of "memory", "sqlite", "badger", "redis".
	Backend       string        `yaml:"backend"`
	Path          string        `yaml:"path"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	TTL           time.Duration `yaml:"ttl"`
}

// TelemetryConfig configures OpenTelemetry tracing export.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}
