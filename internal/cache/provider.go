// Package cache provides the shared cache behind the topology snapshot
// and the latest pattern report. The engine only ever reads and writes
// whole values under a TTL, so the surface is deliberately small.
package cache

import (
	"context"
	"errors"
	"time"
)

// Provider is the cache the correlation engine stores derived state in.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// ErrCacheMiss signals that a cache key was not found.
var ErrCacheMiss = errors.New("cache miss")

// NoopProvider is the disabled-cache stand-in: every read misses and
// every write is discarded.
type NoopProvider struct{}

func (NoopProvider) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }

func (NoopProvider) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopProvider) Close() error { return nil }
