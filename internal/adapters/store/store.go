// Package store opens the durable transaction store selected by configuration.
package store

import (
	"io"

	"go.trai.ch/txlog/internal/adapters/store/bolt"
	"go.trai.ch/txlog/internal/adapters/store/file"
	"go.trai.ch/txlog/internal/adapters/store/memory"
	"go.trai.ch/txlog/internal/adapters/store/redis"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store is a TransactionStore that holds resources until closed.
type Store interface {
	ports.TransactionStore
	io.Closer
}

// Open returns the backend named by cfg.Backend.
func Open(cfg domain.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case domain.BackendMemory:
		return memory.New(), nil
	case domain.BackendFile:
		s, err := file.NewStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case domain.BackendBolt:
		s, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case domain.BackendRedis:
		return redis.New(cfg.Address, cfg.KeyPrefix), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownBackend, "unsupported store backend"), "backend", cfg.Backend)
	}
}
