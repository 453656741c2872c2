// Package cache holds the string caches used as a pure performance layer.
// No operation returns an error to the caller: failures are logged and
// degrade to a miss or a no-op.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// Ping reports the backend health. It is only used by health checks.
	Ping(ctx context.Context) error
	Close() error
}

// NopCache always misses.
type NopCache struct{}

var _ Cache = NopCache{}

func (NopCache) Get(context.Context, string) (string, bool) { return "", false }

func (NopCache) Set(context.Context, string, string, time.Duration) {}

func (NopCache) Delete(context.Context, string) {}

func (NopCache) Ping(context.Context) error { return nil }

func (NopCache) Close() error { return nil }
