package export

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the exporter set Graft node.
const NodeID graft.ID = "adapter.export"

func init() {
	graft.Register(graft.Node[Set]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (Set, error) {
			return DefaultSet(), nil
		},
	})
}
