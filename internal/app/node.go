package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/txlog/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/txlog/internal/adapters/metrics" //nolint:depguard // Wired in app layer
	"go.trai.ch/txlog/internal/adapters/store"   //nolint:depguard // Wired in app layer
	"go.trai.ch/txlog/internal/engine/repository"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: false,
		DependsOn: []graft.ID{
			repository.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			repo, err := graft.Dep[*repository.Repository](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[*logger.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(repo, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: false,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			metrics.NodeID,
			store.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
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

	s, err := graft.Dep[store.Store](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(a, log, m, s), nil
}
