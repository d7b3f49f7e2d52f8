// Package memo implements fingerprinting, dependency tracking and the
// generation-scoped memoization cache shared by evaluation and layout.
package memo

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Seeds for the two independent hash lanes of a Fingerprint.
const (
	seedLo uint64 = 0x9e3779b97f4a7c15
	seedHi uint64 = 0xc2b2ae3d27d4eb4f
)

// Markers written ahead of framed data so that adjacent fields cannot be
// confused with each other.
const (
	markTag   byte = 0xf1
	markBytes byte = 0xf2
	markFP    byte = 0xf3
)

// Fingerprint is a 128-bit structural hash of a value.
type Fingerprint struct {
	Hi uint64
	Lo uint64
}

// String returns the fingerprint as 32 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x%016x", f.Hi, f.Lo)
}

// IsZero reports whether f is the zero fingerprint.
func (f Fingerprint) IsZero() bool {
	return f.Hi == 0 && f.Lo == 0
}

// Compare orders fingerprints; used for order-independent combination.
func (f Fingerprint) Compare(o Fingerprint) int {
	switch {
	case f.Hi < o.Hi:
		return -1
	case f.Hi > o.Hi:
		return 1
	case f.Lo < o.Lo:
		return -1
	case f.Lo > o.Lo:
		return 1
	default:
		return 0
	}
}

// Fingerprinter is implemented by immutable values that compute and cache
// their own fingerprint.
type Fingerprinter interface {
	Fingerprint() Fingerprint
}

// Hashable is implemented by values that write their structure into a Hasher.
// Implementations must write a type tag first.
type Hashable interface {
	Hash(h *Hasher)
}

type ptrKey struct {
	addr uintptr
	typ  reflect.Type
}

// Hasher accumulates the structure of a value into a Fingerprint.
// Shared pointers are hashed once per Hasher tree.
type Hasher struct {
	lo      *xxhash.Digest
	hi      *xxhash.Digest
	seen    map[ptrKey]Fingerprint
	scratch [binary.MaxVarintLen64]byte
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{
		lo: xxhash.NewWithSeed(seedLo),
		hi: xxhash.NewWithSeed(seedHi),
	}
}

// sub returns a fresh Hasher that shares the pointer memo of h.
func (h *Hasher) sub() *Hasher {
	if h.seen == nil {
		h.seen = make(map[ptrKey]Fingerprint)
	}
	s := NewHasher()
	s.seen = h.seen
	return s
}

func (h *Hasher) write(b []byte) {
	_, _ = h.lo.Write(b)
	_, _ = h.hi.Write(b)
}

func (h *Hasher) byte(b byte) {
	h.scratch[0] = b
	h.write(h.scratch[:1])
}

func (h *Hasher) uvarint(v uint64) {
	n := binary.PutUvarint(h.scratch[:], v)
	h.write(h.scratch[:n])
}

// Tag writes a shape discriminator.
func (h *Hasher) Tag(tag string) {
	h.byte(markTag)
	h.uvarint(uint64(len(tag)))
	_, _ = h.lo.WriteString(tag)
	_, _ = h.hi.WriteString(tag)
}

// Bytes writes a length-prefixed byte slice.
func (h *Hasher) Bytes(b []byte) {
	h.byte(markBytes)
	h.uvarint(uint64(len(b)))
	h.write(b)
}

// String writes a length-prefixed string.
func (h *Hasher) String(s string) {
	h.byte(markBytes)
	h.uvarint(uint64(len(s)))
	_, _ = h.lo.WriteString(s)
	_, _ = h.hi.WriteString(s)
}

// Uint64 writes v in fixed width.
func (h *Hasher) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(h.scratch[:8], v)
	h.write(h.scratch[:8])
}

// Int64 writes v in fixed width.
func (h *Hasher) Int64(v int64) {
	h.Uint64(uint64(v))
}

// Int writes v in fixed width.
func (h *Hasher) Int(v int) {
	h.Uint64(uint64(int64(v)))
}

// Float64 writes v with negative zero and NaN canonicalised.
func (h *Hasher) Float64(v float64) {
	switch {
	case v == 0:
		v = 0
	case math.IsNaN(v):
		v = math.NaN()
	}
	h.Uint64(math.Float64bits(v))
}

// Bool writes b.
func (h *Hasher) Bool(b bool) {
	if b {
		h.byte(1)
		return
	}
	h.byte(0)
}

// Fingerprint writes an already computed fingerprint.
func (h *Hasher) Fingerprint(f Fingerprint) {
	h.byte(markFP)
	h.Uint64(f.Hi)
	h.Uint64(f.Lo)
}

// Sum returns the fingerprint of everything written so far.
func (h *Hasher) Sum() Fingerprint {
	return Fingerprint{Hi: h.hi.Sum64(), Lo: h.lo.Sum64()}
}

// Value writes an arbitrary supported value. Fingerprinter and Hashable
// values are delegated to; other values are walked structurally. Functions,
// channels and unsafe pointers cannot be fingerprinted and cause a panic:
// callers must never feed them in.
//
//nolint:cyclop // type switch over the primitive kinds
func (h *Hasher) Value(v any) {
	switch x := v.(type) {
	case nil:
		h.Tag("nil")
	case Fingerprint:
		h.Tag("fingerprint")
		h.Fingerprint(x)
	case Fingerprinter:
		h.Tag("fingerprinter")
		h.Fingerprint(x.Fingerprint())
	case Hashable:
		x.Hash(h)
	case bool:
		h.Tag("bool")
		h.Bool(x)
	case int:
		h.Tag("int")
		h.Int(x)
	case int64:
		h.Tag("int64")
		h.Int64(x)
	case uint64:
		h.Tag("uint64")
		h.Uint64(x)
	case float64:
		h.Tag("float64")
		h.Float64(x)
	case string:
		h.Tag("string")
		h.String(x)
	case []byte:
		h.Tag("bytes")
		h.Bytes(x)
	default:
		h.reflectValue(reflect.ValueOf(v))
	}
}

func (h *Hasher) element(rv reflect.Value) {
	if rv.CanInterface() {
		h.Value(rv.Interface())
		return
	}
	h.reflectValue(rv)
}

//nolint:cyclop,funlen // one case per reflect kind
func (h *Hasher) reflectValue(rv reflect.Value) {
	if !rv.IsValid() {
		h.Tag("nil")
		return
	}
	t := rv.Type()
	switch rv.Kind() {
	case reflect.Bool:
		h.Tag(t.String())
		h.Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.Tag(t.String())
		h.Int64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h.Tag(t.String())
		h.Uint64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		h.Tag(t.String())
		h.Float64(rv.Float())
	case reflect.String:
		h.Tag(t.String())
		h.String(rv.String())
	case reflect.Slice, reflect.Array:
		h.Tag(t.String())
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			h.Tag("nil")
			return
		}
		if t.Elem().Kind() == reflect.Uint8 && rv.Kind() == reflect.Slice {
			h.Bytes(rv.Bytes())
			return
		}
		h.Uint64(uint64(rv.Len()))
		for i := range rv.Len() {
			h.element(rv.Index(i))
		}
	case reflect.Map:
		h.Tag(t.String())
		pairs := make([]Fingerprint, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			s := h.sub()
			s.element(iter.Key())
			s.element(iter.Value())
			pairs = append(pairs, s.Sum())
		}
		slices.SortFunc(pairs, Fingerprint.Compare)
		h.Uint64(uint64(len(pairs)))
		for _, p := range pairs {
			h.Fingerprint(p)
		}
	case reflect.Struct:
		h.Tag(t.String())
		for i := range rv.NumField() {
			h.String(t.Field(i).Name)
			h.element(rv.Field(i))
		}
	case reflect.Pointer:
		if rv.IsNil() {
			h.Tag("nilptr")
			return
		}
		h.Tag("ptr")
		h.Fingerprint(h.pointee(rv))
	case reflect.Interface:
		if rv.IsNil() {
			h.Tag("nil")
			return
		}
		h.element(rv.Elem())
	default:
		panic(fmt.Sprintf("memo: cannot fingerprint value of type %s", t))
	}
}

// pointee fingerprints the target of a pointer once per Hasher tree so that
// shared subtrees of a DAG are not rehashed.
func (h *Hasher) pointee(rv reflect.Value) Fingerprint {
	key := ptrKey{addr: rv.Pointer(), typ: rv.Type()}
	if fp, ok := h.seen[key]; ok {
		return fp
	}
	s := h.sub()
	s.element(rv.Elem())
	fp := s.Sum()
	h.seen[key] = fp
	return fp
}

// Of returns the fingerprint of v.
func Of(v any) Fingerprint {
	h := NewHasher()
	h.Value(v)
	return h.Sum()
}

// Combine fingerprints an ordered sequence of fingerprints.
func Combine(parts ...Fingerprint) Fingerprint {
	h := NewHasher()
	h.Tag("seq")
	h.Uint64(uint64(len(parts)))
	for _, p := range parts {
		h.Fingerprint(p)
	}
	return h.Sum()
}

// CombineUnordered fingerprints a set of fingerprints; order does not matter.
func CombineUnordered(parts ...Fingerprint) Fingerprint {
	sorted := slices.Clone(parts)
	slices.SortFunc(sorted, Fingerprint.Compare)
	h := NewHasher()
	h.Tag("set")
	h.Uint64(uint64(len(sorted)))
	for _, p := range sorted {
		h.Fingerprint(p)
	}
	return h.Sum()
}

// Lazy caches the fingerprint of an immutable value. The zero value is ready
// to use; it must not be copied after first use.
type Lazy struct {
	once sync.Once
	fp   Fingerprint
}

// Get returns the cached fingerprint, computing it on first use.
func (l *Lazy) Get(compute func() Fingerprint) Fingerprint {
	l.once.Do(func() {
		l.fp = compute()
	})
	return l.fp
}
