package ports

import (
	"io"

	"go.trai.ch/quill/internal/core/domain"
)

// Exporter writes a compiled document in some output format.
//
//go:generate go run go.uber.org/mock/mockgen -source=exporter.go -destination=mocks/mock_exporter.go -package=mocks
type Exporter interface {
	Export(w io.Writer, doc *domain.Document) error
}
