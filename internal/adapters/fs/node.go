package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/quill/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the directory walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// WorldNodeID is the unique identifier for the disk world Graft node.
	WorldNodeID graft.ID = "adapter.fs.world"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	// The world is rooted at the working directory; documents name their
	// files relative to it.
	graft.Register(graft.Node[ports.InvalidatingWorld]{
		ID:        WorldNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.InvalidatingWorld, error) {
			return NewWorld(".")
		},
	})
}
