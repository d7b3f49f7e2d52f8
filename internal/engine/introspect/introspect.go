// Package introspect holds the document facts that layout produces and
// evaluation consumes: heading numbers, their pages and the page count.
//
// Layout appends to a Registry during one iteration; Snapshot freezes it into
// an Introspector that the next iteration reads from. Every read is observed
// by the dependency tracker and recorded, so the compiler can tell whether the
// answers it relied on still hold in the next snapshot.
package introspect

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/quill/internal/core/memo"
)

// InputName is the name under which an Introspector is passed to memoized
// calls.
const InputName = "introspector"

const (
	keyPageCount = "pagecount"
	keyOutline   = "outline"
	keyHeading   = "heading:"
	keyPage      = "page:"
)

// HeadingInfo describes a heading as placed by layout.
type HeadingInfo struct {
	Label  string
	Number string
	Title  string
	Level  int
	Page   int
	Y      float64
}

// Registry collects layout facts for one iteration. It is append-only and
// safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	headings  []HeadingInfo
	pageCount int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddHeading records a placed heading.
func (r *Registry) AddHeading(info HeadingInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headings = append(r.headings, info)
}

// SetPageCount records the final number of pages.
func (r *Registry) SetPageCount(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageCount = n
}

// Snapshot freezes the registry into an Introspector.
func (r *Registry) Snapshot() *Introspector {
	r.mu.Lock()
	defer r.mu.Unlock()

	in := &Introspector{
		byLabel: make(map[string]HeadingInfo),
		outline: slices.Clone(r.headings),
		pages:   r.pageCount,
		queries: make(map[string]memo.Fingerprint),
	}
	for _, h := range r.headings {
		if h.Label == "" {
			continue
		}
		if _, dup := in.byLabel[h.Label]; !dup {
			in.byLabel[h.Label] = h
		}
	}
	return in
}

// Introspector answers queries about a frozen registry. It implements
// memo.Input.
type Introspector struct {
	byLabel map[string]HeadingInfo
	outline []HeadingInfo
	pages   int

	mu      sync.Mutex
	queries map[string]memo.Fingerprint
}

// Empty returns an introspector that knows nothing, used before the first
// layout of a document.
func Empty() *Introspector {
	return NewRegistry().Snapshot()
}

// Probe implements memo.Input. Probes made while validating cached results
// are recorded like direct queries.
func (in *Introspector) Probe(key string) memo.Fingerprint {
	fp := in.Answer(key)
	in.record(key, fp)
	return fp
}

// Answer returns the fingerprint of the answer to key without recording it.
func (in *Introspector) Answer(key string) memo.Fingerprint {
	h := memo.NewHasher()
	switch {
	case key == keyPageCount:
		h.Tag(keyPageCount)
		h.Int(in.pages)
	case key == keyOutline:
		h.Tag(keyOutline)
		h.Uint64(uint64(len(in.outline)))
		for _, o := range in.outline {
			h.Int(o.Level)
			h.String(o.Number)
			h.String(o.Title)
			h.Int(o.Page)
		}
	case strings.HasPrefix(key, keyHeading):
		info, ok := in.byLabel[strings.TrimPrefix(key, keyHeading)]
		h.Tag(keyHeading)
		h.Bool(ok)
		h.String(info.Number)
		h.String(info.Title)
	case strings.HasPrefix(key, keyPage):
		info, ok := in.byLabel[strings.TrimPrefix(key, keyPage)]
		h.Tag(keyPage)
		h.Bool(ok)
		h.Int(info.Page)
	default:
		h.Tag("unknown")
		h.String(key)
	}
	return h.Sum()
}

func (in *Introspector) observe(ctx context.Context, key string) {
	fp := in.Answer(key)
	memo.Observe(ctx, InputName, key, fp)
	in.record(key, fp)
}

func (in *Introspector) record(key string, fp memo.Fingerprint) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.queries[key] = fp
}

// Heading returns the number and title of the heading with label.
func (in *Introspector) Heading(ctx context.Context, label string) (HeadingInfo, bool) {
	in.observe(ctx, keyHeading+label)
	info, ok := in.byLabel[label]
	return HeadingInfo{Label: info.Label, Number: info.Number, Title: info.Title, Level: info.Level}, ok
}

// HeadingPage returns the page the heading with label was placed on.
func (in *Introspector) HeadingPage(ctx context.Context, label string) (int, bool) {
	in.observe(ctx, keyPage+label)
	info, ok := in.byLabel[label]
	return info.Page, ok
}

// PageCount returns the number of pages of the document.
func (in *Introspector) PageCount(ctx context.Context) int {
	in.observe(ctx, keyPageCount)
	return in.pages
}

// Outline returns every heading in document order.
func (in *Introspector) Outline(ctx context.Context) []HeadingInfo {
	in.observe(ctx, keyOutline)
	return slices.Clone(in.outline)
}

// Queries returns the answers recorded so far.
func (in *Introspector) Queries() map[string]memo.Fingerprint {
	in.mu.Lock()
	defer in.mu.Unlock()
	return maps.Clone(in.queries)
}

// Stable reports whether every answer recorded by prev is unchanged in next.
// It returns the keys whose answers changed.
func Stable(prev, next *Introspector) (bool, []string) {
	var changed []string
	for key, fp := range prev.Queries() {
		if next.Answer(key) != fp {
			changed = append(changed, key)
		}
	}
	slices.Sort(changed)
	return len(changed) == 0, changed
}

// Fingerprint identifies the full content of the introspector, used to
// detect oscillation between iterations.
func (in *Introspector) Fingerprint() memo.Fingerprint {
	h := memo.NewHasher()
	h.Tag("introspector")
	h.Fingerprint(in.Answer(keyPageCount))
	h.Fingerprint(in.Answer(keyOutline))
	for _, o := range in.outline {
		h.String(o.Label)
	}
	return h.Sum()
}
