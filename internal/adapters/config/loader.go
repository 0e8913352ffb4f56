// Package config provides the configuration loader for txlog.
package config

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"time"

	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DefaultFilename is the configuration file looked up when no path is given.
const DefaultFilename = "txlog.yaml"

// maxExpireSeconds is the largest expiry that still fits in a time.Duration.
const maxExpireSeconds = math.MaxInt64 / int64(time.Second)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the configuration file at path. Keys absent from the file keep
// their default values, and a missing file yields the defaults.
func (l *Loader) Load(path string) (*domain.Config, error) {
	if path == "" {
		path = DefaultFilename
	}

	dto := toDTO(domain.DefaultConfig())

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	default:
		if err := yaml.Unmarshal(data, &dto); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path)
		}
	}

	if int64(dto.Cache.ExpireDuration) > maxExpireSeconds {
		return nil, zerr.With(
			zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "expire duration out of range"), "cache.expireDuration", dto.Cache.ExpireDuration),
			"path", path)
	}

	cfg := fromDTO(&dto)
	if err := cfg.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

func toDTO(cfg *domain.Config) Configfile {
	return Configfile{
		Cache: CacheDTO{
			ExpireDuration: int(cfg.Cache.ExpireDuration / time.Second),
			MaxEntries:     cfg.Cache.MaxEntries,
			Shards:         cfg.Cache.Shards,
		},
		Store: StoreDTO{
			Backend:   cfg.Store.Backend,
			Path:      cfg.Store.Path,
			Address:   cfg.Store.Address,
			KeyPrefix: cfg.Store.KeyPrefix,
		},
		Log: LogDTO{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		},
	}
}

func fromDTO(dto *Configfile) *domain.Config {
	return &domain.Config{
		Cache: domain.CacheConfig{
			ExpireDuration: time.Duration(dto.Cache.ExpireDuration) * time.Second,
			MaxEntries:     dto.Cache.MaxEntries,
			Shards:         dto.Cache.Shards,
		},
		Store: domain.StoreConfig{
			Backend:   dto.Store.Backend,
			Path:      dto.Store.Path,
			Address:   dto.Store.Address,
			KeyPrefix: dto.Store.KeyPrefix,
		},
		Log: domain.LogConfig{
			Level:  dto.Log.Level,
			Format: dto.Log.Format,
			Output: dto.Log.Output,
		},
	}
}

type pathKey struct{}

// WithPath returns a context carrying the configuration file path used by
// the config graph node.
func WithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, pathKey{}, path)
}

// PathFromContext returns the path stored by WithPath, or DefaultFilename.
func PathFromContext(ctx context.Context) string {
	if path, ok := ctx.Value(pathKey{}).(string); ok && path != "" {
		return path
	}
	return DefaultFilename
}
