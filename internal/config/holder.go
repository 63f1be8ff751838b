// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/mediacompose/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 500 * time.Millisecond

// Holder keeps the active configuration and swaps it atomically on reload.
// Only a subset of fields is applied at runtime (log level, encode timeouts,
// mixed policy); listeners decide what they pick up.
type Holder struct {
	current atomic.Pointer[AppConfig]
	loader  *Loader
	logger  zerolog.Logger

	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	listeners []chan<- AppConfig
}

// NewHolder creates a holder seeded with initial.
func NewHolder(initial AppConfig, loader *Loader) *Holder {
	h := &Holder{
		loader: loader,
		logger: log.WithComponent("config"),
	}
	h.current.Store(&initial)
	return h
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	return *h.current.Load()
}

// Reload loads and validates the configuration again. On error the previous
// configuration stays active.
func (h *Holder) Reload(_ context.Context) error {
	if h.loader == nil {
		return nil
	}
	next, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("configuration reload rejected")
		return fmt.Errorf("reload config: %w", err)
	}

	prev := h.current.Swap(&next)
	h.logChanges(*prev, next)
	h.notify(next)

	h.logger.Info().Str(log.FieldEvent, "config.reload_success").Msg("configuration reloaded")
	return nil
}

// Subscribe registers ch for notifications after each successful reload.
// Sends never block; a slow listener misses intermediate versions.
func (h *Holder) Subscribe(ch chan<- AppConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(cfg AppConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Str(log.FieldEvent, "config.listener_full").Msg("config listener not ready, dropping notification")
		}
	}
}

func (h *Holder) logChanges(prev, next AppConfig) {
	if prev.LogLevel != next.LogLevel {
		h.logger.Info().Str("old", prev.LogLevel).Str("new", next.LogLevel).Msg("log level changed")
	}
	if prev.Encode.Timeout != next.Encode.Timeout {
		h.logger.Info().Dur("old", prev.Encode.Timeout).Dur("new", next.Encode.Timeout).Msg("encode timeout changed")
	}
	if prev.Encode.MixedPolicy != next.Encode.MixedPolicy {
		h.logger.Info().Str("old", prev.Encode.MixedPolicy).Str("new", next.Encode.MixedPolicy).Msg("mixed input policy changed")
	}
	if prev.Paths != next.Paths || prev.Server.ListenAddr != next.Server.ListenAddr || prev.Catalog != next.Catalog {
		h.logger.Warn().Str(log.FieldEvent, "config.restart_required").Msg("paths, listener or catalog changed; restart to apply")
	}
}

// Watch reloads the configuration whenever the YAML file changes, until ctx
// is done. Without a file it returns immediately.
func (h *Holder) Watch(ctx context.Context) error {
	if h.loader == nil || h.loader.Path() == "" {
		h.logger.Info().Str(log.FieldEvent, "config.watcher_disabled").Msg("no config file, watcher disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(h.loader.Path()); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}
	h.mu.Lock()
	h.watcher = watcher
	h.mu.Unlock()

	h.logger.Info().Str(log.FieldEvent, "config.watcher_started").Str(log.FieldPath, h.loader.Path()).Msg("watching config file")

	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() { _ = watcher.Close() }()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				_ = h.Reload(ctx)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}
