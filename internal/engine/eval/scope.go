package eval

import (
	"go.trai.ch/quill/internal/core/memo"
)

const scopeInput = "scope"

// Scope is a persistent chain of bindings. Defining a name returns a new
// scope and leaves the receiver untouched, so each top-level block can be
// handed the exact bindings visible to it.
type Scope struct {
	parent *Scope
	name   string
	value  Value
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Define returns a scope in which name is bound to value.
func (s *Scope) Define(name string, value Value) *Scope {
	return &Scope{parent: s, name: name, value: value}
}

// Lookup returns the innermost binding of name.
func (s *Scope) Lookup(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.parent != nil && cur.name == name {
			return cur.value, true
		}
	}
	return nil, false
}

// Probe implements memo.Input. The key is a variable name.
func (s *Scope) Probe(name string) memo.Fingerprint {
	v, ok := s.Lookup(name)
	h := memo.NewHasher()
	h.Tag("binding")
	h.Bool(ok)
	if ok {
		v.Hash(h)
	}
	return h.Sum()
}
