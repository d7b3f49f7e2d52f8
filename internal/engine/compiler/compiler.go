// Package compiler drives evaluation and layout to a fixed point.
//
// Layout produces facts, such as heading numbers and the page count, that
// evaluation consumes. Each iteration evaluates against the facts of the
// previous one and stops once every fact it relied on is unchanged. The memo
// cache carries unchanged work across iterations and across compilations.
package compiler

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/memo"
	"go.trai.ch/quill/internal/core/ports"
	"go.trai.ch/quill/internal/engine/eval"
	"go.trai.ch/quill/internal/engine/introspect"
	"go.trai.ch/quill/internal/engine/layout"
	"go.trai.ch/quill/internal/syntax"
	"go.trai.ch/zerr"
)

// State is what one compilation hands to the next. Only memoized work
// carries over; every compilation starts its stabilization from an empty
// introspector so that the result does not depend on earlier compilations.
// A State serves one compilation at a time.
type State struct {
	cache *memo.Cache
}

// NewState returns an empty state with a cache tuned by cfg.
func NewState(cfg domain.CacheConfig) *State {
	return &State{
		cache: memo.New(memo.WithVariants(cfg.Variants), memo.WithCrossCheck(cfg.CrossCheck)),
	}
}

// Cache returns the memo cache of the state.
func (s *State) Cache() *memo.Cache {
	return s.cache
}

// Reset forgets all cached work.
func (s *State) Reset() {
	s.cache.Clear()
}

// Compiler compiles documents read from a world.
type Compiler struct {
	cfg    domain.Config
	world  ports.World
	tracer ports.Tracer
}

// New creates a Compiler.
func New(cfg domain.Config, world ports.World, tracer ports.Tracer) *Compiler {
	return &Compiler{cfg: cfg, world: world, tracer: tracer}
}

// Compile compiles the file at main, reusing and updating state. Problems in
// the document are reported as diagnostics. An error is returned only when
// the main file cannot be read, the cache fails, or ctx is cancelled; in that
// case the work of the pass is rolled back.
func (c *Compiler) Compile(ctx context.Context, state *State, main string) (*domain.Document, error) {
	ctx, span := c.tracer.Start(ctx, "compile")
	defer span.End()
	span.SetAttribute("main", main)

	cache := state.cache
	before := cache.Stats()
	gen := cache.AdvanceGeneration()
	span.SetAttribute("generation", gen)

	doc, err := c.stabilize(ctx, cache, main)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		cache.Rollback()
		span.RecordError(err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, zerr.With(zerr.Wrap(err, "compilation failed"), "generation", gen)
	}

	cache.Commit()
	cache.EvictStale(c.cfg.Cache.MaxAge)

	doc.Stats = cache.Stats().Sub(before)
	span.SetAttribute("iterations", doc.Iterations)
	span.SetAttribute("converged", doc.Converged)
	span.SetAttribute("pages", len(doc.Pages))
	return doc, nil
}

func (c *Compiler) stabilize(
	ctx context.Context,
	cache *memo.Cache,
	main string,
) (*domain.Document, error) {
	src, err := c.world.Read(main)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read main file"), "path", main)
	}
	file := syntax.Parse(main, string(src))

	used := introspect.Empty()
	seen := map[memo.Fingerprint]bool{used.Fingerprint(): true}
	limit := max(c.cfg.Stabilization.MaxIterations, 1)

	doc := &domain.Document{}
	for iteration := 1; ; iteration++ {
		reg, diags, pages, err := c.iterate(ctx, cache, file, used)
		if err != nil {
			return nil, err
		}
		doc.Pages = pages
		doc.Iterations = iteration

		next := reg.Snapshot()
		stable, changed := introspect.Stable(used, next)
		if stable {
			doc.Converged = true
			doc.Diagnostics = domain.SortDiagnostics(diags)
			return doc, nil
		}

		fp := next.Fingerprint()
		if iteration >= limit || seen[fp] {
			diags = append(diags, domain.Warnf(
				domain.Span{File: domain.NewSymbol(main)},
				"layout did not converge after %d iterations (unstable: %s)",
				iteration, strings.Join(changed, ", "),
			))
			doc.Diagnostics = domain.SortDiagnostics(diags)
			return doc, nil
		}
		seen[fp] = true
		used = next
	}
}

// iterate runs one evaluation and layout pass against used.
func (c *Compiler) iterate(
	ctx context.Context,
	cache *memo.Cache,
	file *syntax.File,
	used *introspect.Introspector,
) (*introspect.Registry, []domain.Diagnostic, []*domain.Frame, error) {
	ctx, span := c.tracer.Start(ctx, "iteration")
	defer span.End()

	evalCtx, evalSpan := c.tracer.Start(ctx, "eval")
	res, err := eval.New(cache, c.world, used).EvalFile(evalCtx, file)
	evalSpan.End()
	if err != nil {
		span.RecordError(err)
		return nil, nil, nil, err
	}

	layoutCtx, layoutSpan := c.tracer.Start(ctx, "layout")
	reg := introspect.NewRegistry()
	out, err := layout.New(cache, c.cfg, used).Layout(layoutCtx, res.Content, reg)
	layoutSpan.End()
	if err != nil {
		span.RecordError(err)
		return nil, nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	span.SetAttribute("pages", len(out.Pages))
	return reg, slices.Concat(res.Diagnostics, out.Diagnostics), out.Pages, nil
}
