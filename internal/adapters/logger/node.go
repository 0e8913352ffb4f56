package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/txlog/internal/adapters/config"
	"go.trai.ch/txlog/internal/core/domain"
)

// NodeID is the graft node providing the zap-backed logger.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[*Logger]{
		ID:        NodeID,
		Cacheable: false,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (*Logger, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return New(cfg.Log)
		},
	})
}
