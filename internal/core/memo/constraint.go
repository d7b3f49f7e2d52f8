package memo

import "slices"

type constraintKind uint8

const (
	kindRead constraintKind = iota
	kindCall
	kindVolatile
)

// Constraint records one observation made during a memoized call: the
// input and key that were read and the fingerprint of what was seen. A
// nested memoized call contributes a single constraint that trusts the
// nested call's whole cache entry.
type Constraint struct {
	Input    string
	Key      string
	Observed Fingerprint

	kind constraintKind
	call *entry
}

// IsCall reports whether c stands for a nested memoized call.
func (c Constraint) IsCall() bool {
	return c.kind == kindCall
}

// IsVolatile reports whether c marks its call as never reusable.
func (c Constraint) IsVolatile() bool {
	return c.kind == kindVolatile
}

type readKey struct {
	input    string
	key      string
	observed Fingerprint
}

// constraintSet is an insertion-ordered set of constraints. It only grows
// while its call runs and is frozen once stored in an entry.
type constraintSet struct {
	items    []Constraint
	reads    map[readKey]struct{}
	calls    map[*entry]struct{}
	volatile bool
}

func (s *constraintSet) addRead(input, key string, fp Fingerprint) {
	k := readKey{input: input, key: key, observed: fp}
	if _, ok := s.reads[k]; ok {
		return
	}
	if s.reads == nil {
		s.reads = make(map[readKey]struct{})
	}
	s.reads[k] = struct{}{}
	s.items = append(s.items, Constraint{Input: input, Key: key, Observed: fp, kind: kindRead})
}

func (s *constraintSet) addCall(e *entry) {
	if _, ok := s.calls[e]; ok {
		return
	}
	if s.calls == nil {
		s.calls = make(map[*entry]struct{})
	}
	s.calls[e] = struct{}{}
	s.items = append(s.items, Constraint{Key: e.key.String(), kind: kindCall, call: e})
}

func (s *constraintSet) addVolatile() {
	if s.volatile {
		return
	}
	s.volatile = true
	s.items = append(s.items, Constraint{kind: kindVolatile})
}

func (s *constraintSet) list() []Constraint {
	return slices.Clone(s.items)
}

type probeKey struct {
	input string
	key   string
}

// validator checks constraint sets against one environment. Probe results
// and nested entry verdicts are memoized for the lifetime of the validator.
type validator struct {
	env    Inputs
	probes map[probeKey]Fingerprint
	calls  map[*entry]bool
}

func newValidator(env Inputs) *validator {
	return &validator{
		env:    env,
		probes: make(map[probeKey]Fingerprint),
		calls:  make(map[*entry]bool),
	}
}

func (v *validator) probe(input, key string) (Fingerprint, bool) {
	pk := probeKey{input: input, key: key}
	if fp, ok := v.probes[pk]; ok {
		return fp, true
	}
	in, ok := v.env[input]
	if !ok || in == nil {
		return Fingerprint{}, false
	}
	fp := in.Probe(key)
	v.probes[pk] = fp
	return fp, true
}

// valid re-observes every constraint and stops at the first mismatch.
func (v *validator) valid(items []Constraint) bool {
	for _, c := range items {
		switch c.kind {
		case kindVolatile:
			return false
		case kindCall:
			if !v.entry(c.call) {
				return false
			}
		default:
			fp, ok := v.probe(c.Input, c.Key)
			if !ok || fp != c.Observed {
				return false
			}
		}
	}
	return true
}

func (v *validator) entry(e *entry) bool {
	if verdict, ok := v.calls[e]; ok {
		return verdict
	}
	// Cycles cannot occur: an entry only trusts entries created before it.
	verdict := v.valid(e.constraints.items)
	v.calls[e] = verdict
	return verdict
}

// Valid reports whether every constraint still holds against env.
func Valid(constraints []Constraint, env Inputs) bool {
	return newValidator(env).valid(constraints)
}
