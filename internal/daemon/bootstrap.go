// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon assembles the mediacompose service and owns its lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/ManuGH/mediacompose/internal/api"
	"github.com/ManuGH/mediacompose/internal/catalog"
	"github.com/ManuGH/mediacompose/internal/compose"
	"github.com/ManuGH/mediacompose/internal/config"
	"github.com/ManuGH/mediacompose/internal/encode"
	"github.com/ManuGH/mediacompose/internal/ffmpeg"
	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/ManuGH/mediacompose/internal/result"
	"github.com/ManuGH/mediacompose/internal/telemetry"
	"github.com/ManuGH/mediacompose/internal/upload"
	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const lockFileName = ".mediacompose.lock"

// Core is the request-independent composition chain shared by the daemon
// and the one-shot CLI.
type Core struct {
	Service  *compose.Service
	Executor *encode.Executor
}

// NewCore wires builder, executor and the ffmpeg runner from cfg. rec may
// be nil.
func NewCore(cfg config.AppConfig, rec compose.Recorder) (*Core, error) {
	policy, err := compose.ParseMixedPolicy(cfg.Encode.MixedPolicy)
	if err != nil {
		return nil, err
	}
	executor := encode.NewExecutor(encode.Config{
		WorkDir:       cfg.Paths.WorkDir,
		Runner:        ffmpeg.NewExecutor(cfg.FFmpeg.Bin),
		Timeout:       cfg.Encode.Timeout,
		StallTimeout:  cfg.Encode.StallTimeout,
		MaxConcurrent: cfg.Encode.MaxConcurrent,
	})
	svcCfg := compose.ServiceConfig{
		Builder:  compose.NewBuilder(cfg.Paths.OutputDir),
		Executor: executor,
		Recorder: rec,
		Policy:   policy,
	}
	if cfg.Upload.NormalizeImages {
		svcCfg.Images = upload.NewImageNormalizer(cfg.Paths.UploadDir)
	}
	service := compose.NewService(svcCfg)
	return &Core{Service: service, Executor: executor}, nil
}

// Bootstrap builds every component of the daemon from the holder's current
// configuration. Resources acquired here are released by the returned App's
// manager on shutdown, or immediately if Bootstrap fails, in which case the
// directories it created are removed as well.
func Bootstrap(ctx context.Context, holder *config.Holder) (app *App, err error) {
	cfg := holder.Get()
	logger := log.WithComponent("daemon")

	var (
		cleanups []namedHook
		created  []string
	)
	onShutdown := func(name string, fn ShutdownHook) {
		cleanups = append(cleanups, namedHook{name: name, hook: fn})
	}
	defer func() {
		if err == nil {
			return
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			_ = cleanups[i].hook(context.WithoutCancel(ctx))
		}
		// Directories outlive a clean shutdown; only a failed startup removes them.
		config.RemoveCreated(created)
	}()

	created, err = config.EnsureDirs(cfg.Paths)
	if err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(cfg.Paths.WorkDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock work directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrWorkDirLocked, cfg.Paths.WorkDir)
	}
	onShutdown("unlock", func(context.Context) error { return lock.Unlock() })

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry initialization failed, continuing without tracing")
		tp, _ = telemetry.NewProvider(ctx, telemetry.Config{})
	}
	onShutdown("telemetry", tp.Shutdown)

	bridge, err := telemetry.NewMeterBridge(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("register meter bridge: %w", err)
	}
	onShutdown("meter", func(ctx context.Context) error {
		prometheus.DefaultRegisterer.Unregister(bridge)
		return bridge.Shutdown(ctx)
	})

	store, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		return nil, err
	}
	onShutdown("catalog", func(context.Context) error { return store.Close() })

	scrub := result.NewScrubber(cfg.Paths.UploadDir, cfg.Paths.OutputDir, cfg.Paths.WorkDir)
	core, err := NewCore(cfg, catalog.NewRecorder(store, scrub))
	if err != nil {
		return nil, err
	}

	tracingService := ""
	if tp.Enabled() {
		tracingService = cfg.LogService
	}
	apiCfg := api.Config{
		Composer: core.Service,
		Receiver: upload.NewReceiver(upload.Config{
			Dir:      cfg.Paths.UploadDir,
			MaxBytes: cfg.Upload.MaxBytes,
		}),
		Catalog:            store,
		Mapper:             result.Mapper{PublicPrefix: cfg.PublicPrefix, Scrubber: scrub},
		OutputDir:          cfg.Paths.OutputDir,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.Upload.RateLimitPerMinute,
		TracingService:     tracingService,
		ReadinessChecks: map[string]api.ReadinessCheck{
			"ffmpeg":  binaryCheck(cfg.FFmpeg.Bin),
			"catalog": store.Ping,
		},
	}
	deps := Deps{
		Logger:      logger,
		MetricsAddr: cfg.Server.MetricsAddr,
	}
	if cfg.Server.MetricsAddr != "" {
		deps.MetricsHandler = promhttp.Handler()
	} else {
		apiCfg.MetricsHandler = promhttp.Handler()
	}

	server, err := api.New(ctx, apiCfg)
	if err != nil {
		return nil, err
	}
	deps.APIHandler = server.Handler()

	mgr, err := NewManager(cfg.Server, deps)
	if err != nil {
		return nil, err
	}
	for _, c := range cleanups {
		mgr.RegisterShutdownHook(c.name, c.hook)
	}

	logger.Info().
		Str("listen", cfg.Server.ListenAddr).
		Str("catalog", cfg.Catalog.Backend).
		Str("output_dir", cfg.Paths.OutputDir).
		Str("mixed_policy", core.Service.MixedPolicy().String()).
		Msg("mediacompose assembled")

	return NewApp(logger, mgr, holder, core), nil
}

func binaryCheck(bin string) api.ReadinessCheck {
	return func(context.Context) error {
		if bin == "" {
			return errors.New("ffmpeg binary not configured")
		}
		_, err := exec.LookPath(bin)
		return err
	}
}
