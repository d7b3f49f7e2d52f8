package memo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// DefaultVariants bounds how many differently-constrained results a single
// key keeps at once.
const DefaultVariants = 4

// FuncID identifies a memoized function.
type FuncID string

// Key identifies a memoized call: the function plus the fingerprint of its
// explicit arguments.
type Key struct {
	Func FuncID
	Args Fingerprint
}

// NewKey fingerprints args for fn.
func NewKey(fn FuncID, args ...any) Key {
	return Key{Func: fn, Args: Of(args)}
}

func (k Key) String() string {
	return string(k.Func) + "/" + k.Args.String()
}

type entry struct {
	key         Key
	result      any
	constraints constraintSet
	created     uint64
	used        atomic.Uint64
	committed   bool
}

// Stats counts cache activity since the cache was created.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// Cache maps calls to results together with the constraints under which
// those results stay valid. It is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[Key][]*entry
	generation uint64
	variants   int
	crossCheck bool
	flight     singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithVariants bounds the number of variants kept per key.
func WithVariants(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.variants = n
		}
	}
}

// WithCrossCheck recomputes every cache hit and fails with ErrStaleHit when
// the cached result differs from the fresh one.
func WithCrossCheck(enabled bool) Option {
	return func(c *Cache) {
		c.crossCheck = enabled
	}
}

// New creates an empty cache at generation zero.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[Key][]*entry),
		variants: DefaultVariants,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Memoize returns the result of compute for key, reusing a cached result when
// all of its constraints still hold against env. A computed result is cached
// with the constraints compute observed through the tracker in its context.
// Errors are returned but never cached.
//
// Concurrent callers with the same key and inputs share one computation.
// Nested calls must be given a subset of their caller's inputs, under the
// same names.
func Memoize[T any](
	ctx context.Context,
	c *Cache,
	key Key,
	env Inputs,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	if e := c.lookup(key, env); e != nil {
		c.hits.Add(1)
		c.touch(e)
		if c.crossCheck {
			if err := crossCheck(ctx, e, compute); err != nil {
				return zero, err
			}
		}
		return resultOf[T](ctx, e)
	}

	v, err, _ := c.flight.Do(flightKey(key, env), func() (any, error) {
		if e := c.lookup(key, env); e != nil {
			c.hits.Add(1)
			c.touch(e)
			return e, nil
		}
		c.misses.Add(1)
		t := NewTracker()
		result, err := compute(WithTracker(ctx, t))
		if err != nil {
			return nil, err
		}
		return c.insert(key, result, t.freeze()), nil
	})
	if err != nil {
		return zero, err
	}
	e, _ := v.(*entry)
	return resultOf[T](ctx, e)
}

func resultOf[T any](ctx context.Context, e *entry) (T, error) {
	var zero T
	if t := TrackerFrom(ctx); t != nil {
		t.call(e)
	}
	if e.result == nil {
		return zero, nil
	}
	res, ok := e.result.(T)
	if !ok {
		return zero, zerr.With(zerr.Wrap(ErrResultType, "memoized call returned a foreign result"), "key", e.key.String())
	}
	return res, nil
}

func crossCheck[T any](ctx context.Context, e *entry, compute func(context.Context) (T, error)) error {
	fresh, err := compute(WithTracker(ctx, NewTracker()))
	if err != nil {
		return err
	}
	if Of(fresh) != Of(e.result) {
		return zerr.With(zerr.Wrap(ErrStaleHit, "cross-check failed"), "key", e.key.String())
	}
	return nil
}

// flightKey joins the call key with the identities of its inputs so that
// callers with different environments never share a computation.
func flightKey(key Key, env Inputs) string {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString(key.String())
	for _, name := range names {
		fmt.Fprintf(&b, "|%s=%p", name, env[name])
	}
	return b.String()
}

// lookup returns the first variant of key that is valid against env.
func (c *Cache) lookup(key Key, env Inputs) *entry {
	c.mu.Lock()
	variants := slices.Clone(c.entries[key])
	c.mu.Unlock()

	if len(variants) == 0 {
		return nil
	}
	v := newValidator(env)
	for i := len(variants) - 1; i >= 0; i-- {
		if v.valid(variants[i].constraints.items) {
			return variants[i]
		}
	}
	return nil
}

// touch marks e and every entry it trusts as used in the current generation.
func (c *Cache) touch(e *entry) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	stack := []*entry{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.used.Swap(gen) == gen {
			continue
		}
		for _, con := range cur.constraints.items {
			if con.kind == kindCall {
				stack = append(stack, con.call)
			}
		}
	}
}

func (c *Cache) insert(key Key, result any, set constraintSet) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{
		key:         key,
		result:      result,
		constraints: set,
		created:     c.generation,
	}
	e.used.Store(c.generation)
	if set.volatile {
		return e
	}

	variants := append(c.entries[key], e)
	if len(variants) > c.variants {
		oldest := 0
		for i, v := range variants[:len(variants)-1] {
			if v.used.Load() < variants[oldest].used.Load() {
				oldest = i
			}
		}
		variants = slices.Delete(variants, oldest, oldest+1)
		c.evictions.Add(1)
	}
	c.entries[key] = variants
	return e
}

// AdvanceGeneration starts a new compilation pass and returns its number.
func (c *Cache) AdvanceGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

// Generation returns the current generation.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Commit makes every entry created so far permanent.
func (c *Cache) Commit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, variants := range c.entries {
		for _, e := range variants {
			e.committed = true
		}
	}
}

// Rollback drops every entry that has not been committed, which discards the
// work of an aborted pass. It returns the number of entries removed.
func (c *Cache) Rollback() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(func(e *entry) bool { return !e.committed })
}

// EvictStale removes entries whose last use is more than maxAge generations
// old and returns how many were removed.
func (c *Cache) EvictStale(maxAge uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation <= maxAge {
		return 0
	}
	threshold := c.generation - maxAge
	n := c.removeLocked(func(e *entry) bool { return e.used.Load() < threshold })
	c.evictions.Add(uint64(n))
	return n
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key][]*entry)
}

func (c *Cache) removeLocked(drop func(*entry) bool) int {
	removed := 0
	for key, variants := range c.entries {
		kept := variants[:0]
		for _, e := range variants {
			if drop(e) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(c.entries, key)
			continue
		}
		c.entries[key] = kept
	}
	return removed
}

// Len returns the number of cached entries across all keys and variants.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, variants := range c.entries {
		n += len(variants)
	}
	return n
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.Len(),
	}
}

// Sub returns the difference between two snapshots.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		Hits:      s.Hits - prev.Hits,
		Misses:    s.Misses - prev.Misses,
		Evictions: s.Evictions - prev.Evictions,
		Entries:   s.Entries,
	}
}
