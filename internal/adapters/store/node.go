package store

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/txlog/internal/adapters/config"
	"go.trai.ch/txlog/internal/core/domain"
)

// NodeID is the graft node opening the configured store.
const NodeID graft.ID = "adapter.store"

func init() {
	graft.Register(graft.Node[Store]{
		ID:        NodeID,
		Cacheable: false,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (Store, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return Open(cfg.Store)
		},
	})
}
