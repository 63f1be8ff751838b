// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package catalog

import (
	"context"
	"errors"

	"github.com/ManuGH/mediacompose/internal/metrics"
)

// Instrument counts failed operations of s. ErrNotFound is not a failure.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

type instrumented struct {
	Store
	backend string
}

func (i *instrumented) count(op string, err error) error {
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.CatalogErrors.WithLabelValues(i.backend, op).Inc()
	}
	return err
}

func (i *instrumented) Put(ctx context.Context, rec Record) error {
	return i.count("put", i.Store.Put(ctx, rec))
}

func (i *instrumented) Get(ctx context.Context, id string) (Record, error) {
	rec, err := i.Store.Get(ctx, id)
	return rec, i.count("get", err)
}

func (i *instrumented) List(ctx context.Context, limit int) ([]Record, error) {
	recs, err := i.Store.List(ctx, limit)
	return recs, i.count("list", err)
}

func (i *instrumented) Ping(ctx context.Context) error {
	return i.count("ping", i.Store.Ping(ctx))
}
