package repository

import (
	"time"

	"go.trai.ch/txlog/internal/adapters/cache" //nolint:depguard // The repository owns its cache
	"go.trai.ch/txlog/internal/core/ports"
)

type options struct {
	expire     time.Duration
	maxEntries int
	shards     int
	logger     ports.Logger
	metrics    ports.Metrics
	cache      *cache.EntryCache
}

// Option configures a Repository.
type Option func(*options)

// WithExpireDuration sets how long an unused cache entry stays live.
func WithExpireDuration(d time.Duration) Option {
	return func(o *options) {
		o.expire = d
	}
}

// WithMaxEntries bounds the number of cached transactions.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithShards sets the number of cache shards.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m ports.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithCache injects a prebuilt cache. Size and expiry options are then ignored.
// Evictions are reported to the metrics sink in addition to the cache's own
// OnEvict callback.
func WithCache(c *cache.EntryCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(error, ...any)  {}

type nopMetrics struct{}

func (nopMetrics) CacheHit()            {}
func (nopMetrics) CacheMiss()           {}
func (nopMetrics) CacheEviction(string) {}
func (nopMetrics) Conflict(string)      {}
func (nopMetrics) StoreError(string)    {}
