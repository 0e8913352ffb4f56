package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
)

const (
	// LoaderNodeID provides the YAML configuration loader.
	LoaderNodeID graft.ID = "adapter.config_loader"
	// NodeID resolves the runtime configuration.
	NodeID graft.ID = "adapter.config"
)

// Nodes resolved from the configuration are not cacheable: their output
// depends on the path carried by the execution context.
func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        LoaderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ConfigLoader, error) {
			return NewLoader(), nil
		},
	})

	graft.Register(graft.Node[*domain.Config]{
		ID:        NodeID,
		Cacheable: false,
		DependsOn: []graft.ID{LoaderNodeID},
		Run: func(ctx context.Context) (*domain.Config, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
			return Resolve(ctx, loader)
		},
	})
}

// Resolve loads the configuration file named by the context.
func Resolve(ctx context.Context, loader ports.ConfigLoader) (*domain.Config, error) {
	return loader.Load(PathFromContext(ctx))
}
