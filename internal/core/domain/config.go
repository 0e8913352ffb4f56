package domain

import (
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultExpireDuration is how long an unused cache entry stays live.
	DefaultExpireDuration = 120 * time.Second
	// DefaultMaxEntries bounds the number of cached transactions.
	DefaultMaxEntries = 1000
	// DefaultShards is the number of independently locked cache shards.
	DefaultShards = 1
)

// Store backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
)

// Config is the resolved runtime configuration.
type Config struct {
	Cache CacheConfig
	Store StoreConfig
	Log   LogConfig
}

// CacheConfig sizes the transaction cache.
type CacheConfig struct {
	ExpireDuration time.Duration
	MaxEntries     int
	Shards         int
}

// StoreConfig selects and locates the durable store.
type StoreConfig struct {
	Backend   string
	Path      string
	Address   string
	KeyPrefix string
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			ExpireDuration: DefaultExpireDuration,
			MaxEntries:     DefaultMaxEntries,
			Shards:         DefaultShards,
		},
		Store: StoreConfig{
			Backend:   BackendFile,
			Path:      "txlog.json",
			KeyPrefix: "txlog:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// Validate checks the configuration for values the repository cannot honour.
func (c *Config) Validate() error {
	if c.Cache.ExpireDuration <= 0 {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "expire duration must be positive"), "cache.expireDuration", c.Cache.ExpireDuration.String())
	}
	if c.Cache.MaxEntries <= 0 {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "max entries must be positive"), "cache.maxEntries", c.Cache.MaxEntries)
	}
	if c.Cache.Shards <= 0 || c.Cache.Shards > c.Cache.MaxEntries {
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "shards must be between 1 and max entries"), "cache.shards", c.Cache.Shards)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile, BackendBolt:
		if c.Store.Path == "" {
			return zerr.With(zerr.Wrap(ErrInvalidConfig, "store path is required"), "backend", c.Store.Backend)
		}
	case BackendRedis:
		if c.Store.Address == "" {
			return zerr.With(zerr.Wrap(ErrInvalidConfig, "store address is required"), "backend", c.Store.Backend)
		}
	default:
		return zerr.With(zerr.Wrap(ErrUnknownBackend, "unsupported store backend"), "backend", c.Store.Backend)
	}

	return nil
}
