package domain

import (
	"unique"

	"go.trai.ch/quill/internal/core/memo"
)

// Symbol is an interned string used for labels, identifiers and file paths.
// Equal symbols share one handle, so comparisons are pointer-cheap.
type Symbol struct {
	h unique.Handle[string]
}

// NewSymbol interns s.
func NewSymbol(s string) Symbol {
	return Symbol{
		h: unique.Make(s),
	}
}

// String returns the underlying string value.
func (s Symbol) String() string {
	var zero unique.Handle[string]
	if s.h == zero {
		return ""
	}
	return s.h.Value()
}

// IsZero reports whether s was never set.
func (s Symbol) IsZero() bool {
	var zero unique.Handle[string]
	return s.h == zero
}

// Hash writes the symbol text; interning does not affect the fingerprint.
func (s Symbol) Hash(h *memo.Hasher) {
	h.Tag("symbol")
	h.String(s.String())
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Symbol) UnmarshalText(text []byte) error {
	s.h = unique.Make(string(text))
	return nil
}
