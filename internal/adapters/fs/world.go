// Package fs provides the on-disk world that documents are compiled from.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InvalidatingWorld = (*World)(nil)

// entry is a cached read. A missing file is cached too so that its creation
// can be reported as a change.
type entry struct {
	data    []byte
	digest  uint64
	missing bool
	size    int64
	modTime time.Time
}

// World serves files below a root directory. Content is cached until the
// file's size or modification time changes or the path is invalidated.
type World struct {
	root string

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewWorld creates a world rooted at root.
func NewWorld(root string) (*World, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve world root"), "root", root)
	}
	return &World{root: abs, entries: make(map[string]*entry)}, nil
}

// Root returns the absolute root directory.
func (w *World) Root() string {
	return w.root
}

// key maps a document path or an absolute path below the root to the cache
// key. Paths outside the root yield false.
func (w *World) key(path string) (string, bool) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return "", false
		}
		path = rel
	}
	key := filepath.ToSlash(filepath.Clean(path))
	if key == ".." || strings.HasPrefix(key, "../") {
		return "", false
	}
	return key, true
}

// Read returns the content of the file at path, relative to the root.
func (w *World) Read(path string) ([]byte, error) {
	key, ok := w.key(path)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileNotReadable, "path escapes the world root"), "path", path)
	}

	info, statErr := os.Stat(w.abs(key))

	w.mu.RLock()
	cached := w.entries[key]
	w.mu.RUnlock()
	if cached != nil && cached.matches(info, statErr) {
		return cached.result(path)
	}

	e, err := w.load(key, info, statErr)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.entries[key] = e
	w.mu.Unlock()
	return e.result(path)
}

func (w *World) abs(key string) string {
	return filepath.Join(w.root, filepath.FromSlash(key))
}

func (w *World) load(key string, info iofs.FileInfo, statErr error) (*entry, error) {
	if errors.Is(statErr, iofs.ErrNotExist) {
		return &entry{missing: true}, nil
	}
	if statErr != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileNotReadable, statErr.Error()), "path", key)
	}
	if info.IsDir() {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileNotReadable, "path is a directory"), "path", key)
	}

	data, err := os.ReadFile(w.abs(key))
	if errors.Is(err, iofs.ErrNotExist) {
		return &entry{missing: true}, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileNotReadable, err.Error()), "path", key)
	}
	return &entry{
		data:    data,
		digest:  xxhash.Sum64(data),
		size:    info.Size(),
		modTime: info.ModTime(),
	}, nil
}

func (e *entry) matches(info iofs.FileInfo, statErr error) bool {
	if e.missing {
		return errors.Is(statErr, iofs.ErrNotExist)
	}
	return statErr == nil && info.Size() == e.size && info.ModTime().Equal(e.modTime)
}

func (e *entry) result(path string) ([]byte, error) {
	if e.missing {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileNotFound, "no such file"), "path", path)
	}
	return e.data, nil
}

// Invalidate drops the cached content of paths. It returns the paths whose
// content now differs from the cached copy, in document path form. Paths
// that were never read are not reported.
func (w *World) Invalidate(paths []string) []string {
	var changed []string
	for _, p := range paths {
		key, ok := w.key(p)
		if !ok {
			continue
		}
		w.mu.Lock()
		old := w.entries[key]
		delete(w.entries, key)
		w.mu.Unlock()
		if old == nil {
			continue
		}

		info, statErr := os.Stat(w.abs(key))
		fresh, err := w.load(key, info, statErr)
		if err != nil || fresh.missing != old.missing || fresh.digest != old.digest {
			changed = append(changed, key)
			continue
		}
		// Same bytes under a new timestamp.
		fresh.data = old.data
		w.mu.Lock()
		w.entries[key] = fresh
		w.mu.Unlock()
	}
	return changed
}

// Tracked returns the number of cached paths.
func (w *World) Tracked() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entries)
}
