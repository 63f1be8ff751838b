// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment variable read by the loader.
const EnvPrefix = "MEDIACOMPOSE_"

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath  string
	version     string
	dotEnvFiles []string
}

// NewLoader creates a new configuration loader. dotEnvFiles are loaded into
// the process environment first; variables that are already set win.
func NewLoader(configPath, version string, dotEnvFiles ...string) *Loader {
	if dotEnvFiles == nil {
		dotEnvFiles = []string{".env"}
	}
	return &Loader{
		configPath:  configPath,
		version:     version,
		dotEnvFiles: dotEnvFiles,
	}
}

// Path returns the YAML file this loader reads (may be empty).
func (l *Loader) Path() string { return l.configPath }

// Load loads configuration with precedence: ENV > File > Defaults.
func (l *Loader) Load() (AppConfig, error) {
	if err := l.loadDotEnv(); err != nil {
		return AppConfig{}, err
	}

	cfg := Defaults()
	cfg.Version = l.version

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)

	cfg.FFmpeg.FFprobeBin = ResolveFFprobeBin(cfg.FFmpeg.FFprobeBin, cfg.FFmpeg.Bin)
	cfg.PublicPrefix = "/" + strings.Trim(cfg.PublicPrefix, "/")

	for _, p := range []*string{&cfg.Paths.UploadDir, &cfg.Paths.OutputDir, &cfg.Paths.WorkDir} {
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l *Loader) loadDotEnv() error {
	for _, f := range l.dotEnvFiles {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// loadFile decodes the YAML file on top of cfg. Unknown keys are rejected.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func env(name string) string { return EnvPrefix + name }

// mergeEnv overrides cfg with environment variables.
func mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = ParseString(env("LOG_LEVEL"), cfg.LogLevel)
	cfg.LogService = ParseString(env("LOG_SERVICE"), cfg.LogService)

	// PORT is honoured for compatibility with PaaS style deployments; an
	// explicit listen address wins.
	if port := ParseString("PORT", ""); port != "" {
		cfg.Server.ListenAddr = net.JoinHostPort("", port)
	}
	cfg.Server.ListenAddr = ParseString(env("LISTEN"), cfg.Server.ListenAddr)
	cfg.Server.MetricsAddr = ParseString(env("METRICS_LISTEN"), cfg.Server.MetricsAddr)
	cfg.Server.ReadTimeout = ParseDuration(env("READ_TIMEOUT"), cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = ParseDuration(env("WRITE_TIMEOUT"), cfg.Server.WriteTimeout)
	cfg.Server.ShutdownTimeout = ParseDuration(env("SHUTDOWN_TIMEOUT"), cfg.Server.ShutdownTimeout)
	cfg.Server.MaxConnections = ParseInt(env("MAX_CONNECTIONS"), cfg.Server.MaxConnections)

	cfg.Paths.UploadDir = ParseString(env("UPLOAD_DIR"), cfg.Paths.UploadDir)
	cfg.Paths.OutputDir = ParseString(env("OUTPUT_DIR"), cfg.Paths.OutputDir)
	cfg.Paths.WorkDir = ParseString(env("WORK_DIR"), cfg.Paths.WorkDir)

	cfg.FFmpeg.Bin = ParseString(env("FFMPEG_BIN"), cfg.FFmpeg.Bin)
	cfg.FFmpeg.FFprobeBin = ParseString(env("FFPROBE_BIN"), cfg.FFmpeg.FFprobeBin)

	cfg.Encode.Timeout = ParseDuration(env("ENCODE_TIMEOUT"), cfg.Encode.Timeout)
	cfg.Encode.StallTimeout = ParseDuration(env("STALL_TIMEOUT"), cfg.Encode.StallTimeout)
	cfg.Encode.MaxConcurrent = ParseInt(env("MAX_CONCURRENT_ENCODES"), cfg.Encode.MaxConcurrent)
	cfg.Encode.MixedPolicy = ParseString(env("MIXED_POLICY"), cfg.Encode.MixedPolicy)

	cfg.Upload.MaxBytes = ParseInt64(env("MAX_UPLOAD_BYTES"), cfg.Upload.MaxBytes)
	cfg.Upload.NormalizeImages = ParseBool(env("NORMALIZE_IMAGES"), cfg.Upload.NormalizeImages)
	cfg.Upload.RateLimitPerMinute = ParseInt(env("RATE_LIMIT"), cfg.Upload.RateLimitPerMinute)

	cfg.Catalog.Backend = ParseString(env("CATALOG_BACKEND"), cfg.Catalog.Backend)
	cfg.Catalog.Path = ParseString(env("CATALOG_PATH"), cfg.Catalog.Path)
	cfg.Catalog.RedisAddr = ParseString(env("REDIS_ADDR"), cfg.Catalog.RedisAddr)
	cfg.Catalog.RedisPassword = ParseString(env("REDIS_PASSWORD"), cfg.Catalog.RedisPassword)
	cfg.Catalog.RedisDB = ParseInt(env("REDIS_DB"), cfg.Catalog.RedisDB)
	cfg.Catalog.TTL = ParseDuration(env("CATALOG_TTL"), cfg.Catalog.TTL)

	cfg.Telemetry.Enabled = ParseBool(env("TRACING_ENABLED"), cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(env("OTLP_EXPORTER"), cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(env("OTLP_ENDPOINT"), cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(env("TRACING_SAMPLING_RATE"), cfg.Telemetry.SamplingRate)

	cfg.PublicPrefix = ParseString(env("PUBLIC_PREFIX"), cfg.PublicPrefix)
	cfg.AllowedOrigins = ParseStringSlice(env("CORS_ORIGINS"), cfg.AllowedOrigins)
}
