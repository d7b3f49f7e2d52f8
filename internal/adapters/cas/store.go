// Package cas stores compile info between runs, one JSON file per document.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/zerr"
)

// DefaultDir is where compile info is kept, relative to the working directory.
const DefaultDir = ".quill/state"

// Store implements ports.CompileInfoStore on a directory of JSON files.
// Files are named by a hash of the document path.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a store rooted at dir. The directory is created on the
// first Put.
func NewStore(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

func (s *Store) pathFor(document string) string {
	name := strconv.FormatUint(xxhash.Sum64String(filepath.Clean(document)), 16)
	return filepath.Join(s.dir, name+".json")
}

// Get retrieves the compile info for a document. It returns nil, nil when
// nothing was stored.
func (s *Store) Get(document string) (*domain.CompileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.pathFor(document)
	//nolint:gosec // Path is derived from a hash inside the store directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read compile info"), "path", path)
	}

	var info domain.CompileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to unmarshal compile info"), "path", path)
	}
	if info.Document != filepath.Clean(document) {
		// Hash collision with another document.
		return nil, nil
	}
	return &info, nil
}

// Put stores the compile info, replacing what was stored for its document.
func (s *Store) Put(info domain.CompileInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info.Document = filepath.Clean(info.Document)
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal compile info")
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory for compile info"), "dir", s.dir)
	}

	path := s.pathFor(info.Document)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write compile info"), "path", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to commit compile info"), "path", path)
	}
	return nil
}
