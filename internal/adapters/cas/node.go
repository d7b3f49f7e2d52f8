package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/quill/internal/core/ports"
)

// NodeID is the unique identifier for the compile info store Graft node.
const NodeID graft.ID = "adapter.compile_info_store"

func init() {
	graft.Register(graft.Node[ports.CompileInfoStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.CompileInfoStore, error) {
			return NewStore(DefaultDir), nil
		},
	})
}
