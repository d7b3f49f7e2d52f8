package ports

import "go.trai.ch/quill/internal/core/domain"

// CompileInfoStore defines the interface for storing and retrieving the
// results of previous compilations.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CompileInfoStore interface {
	// Get retrieves the compile info for a given document path.
	// Returns nil, nil if not found.
	Get(document string) (*domain.CompileInfo, error)

	// Put stores the compile info.
	Put(info domain.CompileInfo) error
}
