package repository

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/txlog/internal/adapters/config"  //nolint:depguard // Wired in engine layer
	"go.trai.ch/txlog/internal/adapters/logger"  //nolint:depguard // Wired in engine layer
	"go.trai.ch/txlog/internal/adapters/metrics" //nolint:depguard // Wired in engine layer
	"go.trai.ch/txlog/internal/adapters/store"   //nolint:depguard // Wired in engine layer
	"go.trai.ch/txlog/internal/core/domain"
)

// NodeID is the unique identifier for the repository Graft node.
const NodeID graft.ID = "engine.repository"

func init() {
	graft.Register(graft.Node[*Repository]{
		ID:        NodeID,
		Cacheable: false,
		DependsOn: []graft.ID{
			config.NodeID,
			store.NodeID,
			logger.NodeID,
			metrics.NodeID,
		},
		Run: func(ctx context.Context) (*Repository, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}

			s, err := graft.Dep[store.Store](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[*logger.Logger](ctx)
			if err != nil {
				return nil, err
			}

			m, err := graft.Dep[*metrics.Prometheus](ctx)
			if err != nil {
				return nil, err
			}

			return New(s,
				WithExpireDuration(cfg.Cache.ExpireDuration),
				WithMaxEntries(cfg.Cache.MaxEntries),
				WithShards(cfg.Cache.Shards),
				WithLogger(log),
				WithMetrics(m),
			), nil
		},
	})
}
