package eval

import (
	"context"
	"errors"
	"path"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/memo"
	"go.trai.ch/quill/internal/core/ports"
)

const worldInput = "world"

// trackedWorld exposes a ports.World as a memo.Input keyed by file path.
type trackedWorld struct {
	world ports.World
}

// Probe implements memo.Input.
func (w *trackedWorld) Probe(file string) memo.Fingerprint {
	data, err := w.world.Read(file)
	return contentFingerprint(data, err)
}

// read loads file and records the observation. A missing file is a stable
// observation; any other failure makes the caller volatile.
func (w *trackedWorld) read(ctx context.Context, file string) ([]byte, error) {
	data, err := w.world.Read(file)
	if err != nil && !errors.Is(err, domain.ErrFileNotFound) {
		memo.Volatile(ctx)
		return nil, err
	}
	memo.Observe(ctx, worldInput, file, contentFingerprint(data, err))
	return data, err
}

func contentFingerprint(data []byte, err error) memo.Fingerprint {
	h := memo.NewHasher()
	switch {
	case errors.Is(err, domain.ErrFileNotFound):
		h.Tag("missing")
	case err != nil:
		h.Tag("unreadable")
	default:
		h.Tag("file")
		h.Bytes(data)
	}
	return h.Sum()
}

// cleanPath normalises a path given in source to a root-relative form.
func cleanPath(p string) string {
	p = path.Clean("/" + p)
	return p[1:]
}
