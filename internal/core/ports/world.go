package ports

//go:generate go run go.uber.org/mock/mockgen -source=world.go -destination=mocks/mock_world.go -package=mocks

// World is the source of truth for files a document reads.
type World interface {
	// Read returns the content of the file at path, relative to the world root.
	// Missing files yield an error wrapping domain.ErrFileNotFound.
	Read(path string) ([]byte, error)
}

// InvalidatingWorld is a World that caches file content until told that
// paths changed.
type InvalidatingWorld interface {
	World
	// Invalidate drops cached content for the given paths and returns those
	// whose content differs from what was last read.
	Invalidate(paths []string) []string
}
