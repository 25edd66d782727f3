// Package cachemanager provides a small typed cache abstraction.
//
// Folio's only hot cache is glyph-run width measurement: layout probes the
// same runs repeatedly within and across renders, and measurement is a pure
// function of (style, text) for a fixed font configuration, so memoization is
// always safe. Spans and lines are deliberately never cached (they are rebuilt
// every render); only measurements are.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a typed key/value cache with per-entry TTLs.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
