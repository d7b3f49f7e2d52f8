package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// skipDirs are never walked.
var skipDirs = map[string]bool{
	".git":         true,
	".jj":          true,
	".quill":       true,
	"node_modules": true,
}

// Walker enumerates the directories of a world.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkDirs yields root and every directory below it, skipping version
// control, state, and ignored directories. Unreadable directories are skipped.
func (w *Walker) WalkDirs(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && w.Skip(d.Name(), ignores) {
				return filepath.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Skip reports whether a directory with the given name is not walked.
func (w *Walker) Skip(name string, ignores []string) bool {
	if skipDirs[name] {
		return true
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
