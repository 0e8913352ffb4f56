package metrics

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the graft node providing the Prometheus metrics.
const NodeID graft.ID = "adapter.metrics"

func init() {
	graft.Register(graft.Node[*Prometheus]{
		ID:        NodeID,
		Cacheable: false,
		Run: func(_ context.Context) (*Prometheus, error) {
			return New(), nil
		},
	})
}
