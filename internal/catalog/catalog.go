// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package catalog records the outcome of every composition so clients can
// look a job up after the upload request has returned.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/mediacompose/internal/config"
)

// ErrNotFound is returned when no record exists for an ID.
var ErrNotFound = errors.New("catalog: record not found")

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 100

// Record is the persisted view of one JobOutcome.
type Record struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Pipeline string `json:"pipeline"`
	// Assets is the submitted asset combination, e.g. "image+audio".
	Assets       string    `json:"assets"`
	VideoIgnored bool      `json:"video_ignored,omitempty"`
	Inputs       []string  `json:"inputs,omitempty"`
	Locator      string    `json:"locator,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists records.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open creates the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.CatalogConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", config.CatalogMemory:
		s = NewMemoryStore(cfg.TTL)
	case config.CatalogSQLite:
		s, err = OpenSQLiteStore(ctx, cfg.Path, cfg.TTL)
	case config.CatalogBadger:
		s, err = OpenBadgerStore(cfg.Path, cfg.TTL)
	case config.CatalogRedis:
		s, err = OpenRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown catalog backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", cfg.Backend, err)
	}
	return Instrument(s, backendName(cfg.Backend)), nil
}

func backendName(b string) string {
	if b == "" {
		return config.CatalogMemory
	}
	return b
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

func expired(rec Record, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(rec.CreatedAt) > ttl
}
