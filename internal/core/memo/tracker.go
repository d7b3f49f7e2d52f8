package memo

import (
	"context"
	"sync"
)

// Input is a source of mutable state that memoized calls may read.
type Input interface {
	// Probe returns the fingerprint of the current answer to the query key.
	// Probe must be deterministic for a given state of the input.
	Probe(key string) Fingerprint
}

// Inputs names the tracked inputs a memoized call is allowed to read.
type Inputs map[string]Input

type trackerKey struct{}

// Tracker accumulates the constraints of one memoized call. It is safe for
// concurrent use by the goroutines working on behalf of that call.
type Tracker struct {
	mu  sync.Mutex
	set constraintSet
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Constraints returns a copy of the constraints recorded so far.
func (t *Tracker) Constraints() []Constraint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.set.list()
}

// Len returns the number of distinct constraints recorded.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.set.items)
}

func (t *Tracker) read(input, key string, fp Fingerprint) {
	t.mu.Lock()
	t.set.addRead(input, key, fp)
	t.mu.Unlock()
}

func (t *Tracker) call(e *entry) {
	t.mu.Lock()
	t.set.addCall(e)
	t.mu.Unlock()
}

func (t *Tracker) volatile() {
	t.mu.Lock()
	t.set.addVolatile()
	t.mu.Unlock()
}

// freeze hands the accumulated set over to a cache entry.
func (t *Tracker) freeze() constraintSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.set
	t.set = constraintSet{}
	return set
}

// WithTracker returns a context that records observations into t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// Untracked returns a context in which observations are not recorded.
func Untracked(ctx context.Context) context.Context {
	return context.WithValue(ctx, trackerKey{}, (*Tracker)(nil))
}

// TrackerFrom returns the tracker carried by ctx, or nil.
func TrackerFrom(ctx context.Context) *Tracker {
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}

// Observe records that the current call read key from the named input and
// saw a value with fingerprint fp. Outside a memoized call it does nothing.
func Observe(ctx context.Context, input, key string, fp Fingerprint) {
	if t := TrackerFrom(ctx); t != nil {
		t.read(input, key, fp)
	}
}

// Volatile marks the current call as depending on state that cannot be
// probed. Its cache entry is never reused.
func Volatile(ctx context.Context) {
	if t := TrackerFrom(ctx); t != nil {
		t.volatile()
	}
}
