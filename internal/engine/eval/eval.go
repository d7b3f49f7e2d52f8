// Package eval turns parsed markup into document content.
//
// Every top-level block of the main file is a memoized unit keyed by its
// fingerprint and evaluated against the bindings visible to it, the world and
// the introspector of the previous layout. Included files are memoized as a
// whole.
package eval

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/memo"
	"go.trai.ch/quill/internal/core/ports"
	"go.trai.ch/quill/internal/engine/introspect"
	"go.trai.ch/quill/internal/syntax"
	"go.trai.ch/zerr"
	"golang.org/x/text/unicode/norm"
)

// Result is evaluated content with the diagnostics raised while producing it.
type Result struct {
	Content     domain.Content
	Diagnostics []domain.Diagnostic
}

// Evaluator evaluates files against one world and one introspector.
type Evaluator struct {
	cache *memo.Cache
	world *trackedWorld
	intro *introspect.Introspector
}

// New returns an evaluator that memoizes into cache.
func New(cache *memo.Cache, world ports.World, intro *introspect.Introspector) *Evaluator {
	return &Evaluator{
		cache: cache,
		world: &trackedWorld{world: world},
		intro: intro,
	}
}

// EvalFile evaluates a parsed main file. Document errors are reported as
// diagnostics; the returned error is reserved for cancellation and cache
// failures.
func (e *Evaluator) EvalFile(ctx context.Context, file *syntax.File) (Result, error) {
	chain := []string{file.Path}
	scope := NewScope()
	symbol := domain.NewSymbol(file.Path)

	var (
		parts []domain.Content
		diags []domain.Diagnostic
	)
	for _, b := range file.Blocks {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		out, err := e.evalBlock(ctx, file.Path, b, scope, chain)
		if err != nil {
			return Result{}, err
		}
		diags = appendRebased(diags, out.Diagnostics, symbol, b.StartLine())
		if out.Name != "" {
			scope = scope.Define(out.Name, out.Value)
		}
		if out.Content != nil {
			parts = append(parts, domain.Locate(out.Content, blockSpan(symbol, b)))
		}
	}
	return Result{Content: domain.NewSequence(parts...), Diagnostics: diags}, nil
}

// blockOutput is the memoized result of one top-level block.
type blockOutput struct {
	Content     domain.Content
	Name        string
	Value       Value
	Diagnostics []domain.Diagnostic
}

func (e *Evaluator) evalBlock(
	ctx context.Context,
	file string,
	b syntax.Block,
	scope *Scope,
	chain []string,
) (blockOutput, error) {
	key := memo.NewKey("eval.block", file, b.Fingerprint(), chain)
	env := memo.Inputs{
		scopeInput:            scope,
		worldInput:            e.world,
		introspect.InputName: e.intro,
	}
	return memo.Memoize(ctx, e.cache, key, env, func(ctx context.Context) (blockOutput, error) {
		v := e.newVM(ctx, file, scope, chain, true)
		out := v.block(b)
		return out, v.err
	})
}

// fileOutput is the memoized result of an included file.
type fileOutput struct {
	Result
	Failure string
}

func (e *Evaluator) evalInclude(ctx context.Context, file string, chain []string) (fileOutput, error) {
	key := memo.NewKey("eval.file", file, chain)
	env := memo.Inputs{
		worldInput:            e.world,
		introspect.InputName: e.intro,
	}
	return memo.Memoize(ctx, e.cache, key, env, func(ctx context.Context) (fileOutput, error) {
		data, err := e.world.read(ctx, file)
		switch {
		case errors.Is(err, domain.ErrFileNotFound):
			return fileOutput{Failure: "file not found: " + file}, nil
		case err != nil:
			return fileOutput{Failure: fmt.Sprintf("cannot read %s: %v", file, err)}, nil
		}

		parsed := syntax.Parse(file, string(data))
		symbol := domain.NewSymbol(file)
		scope := NewScope()

		var (
			parts []domain.Content
			diags []domain.Diagnostic
		)
		for _, b := range parsed.Blocks {
			if err := ctx.Err(); err != nil {
				return fileOutput{}, err
			}
			v := e.newVM(ctx, file, scope, chain, false)
			out := v.block(b)
			if v.err != nil {
				return fileOutput{}, v.err
			}
			diags = appendRebased(diags, out.Diagnostics, symbol, b.StartLine())
			if out.Name != "" {
				scope = scope.Define(out.Name, out.Value)
			}
			if out.Content != nil {
				parts = append(parts, domain.Locate(out.Content, blockSpan(symbol, b)))
			}
		}
		return fileOutput{Result: Result{Content: domain.NewSequence(parts...), Diagnostics: diags}}, nil
	})
}

func blockSpan(file domain.Symbol, b syntax.Block) domain.Span {
	return domain.Span{File: file, Line: b.StartLine(), Column: 1}
}

// appendRebased moves the block-relative spans that belong to file onto
// absolute lines. Spans from included files are already absolute.
func appendRebased(dst, diags []domain.Diagnostic, file domain.Symbol, startLine int) []domain.Diagnostic {
	for _, d := range diags {
		if d.Span.File == file {
			d.Span = d.Span.Shift(startLine - 1)
		}
		dst = append(dst, d)
	}
	return dst
}

// vm evaluates a single block.
type vm struct {
	ctx        context.Context
	ev         *Evaluator
	file       domain.Symbol
	scope      *Scope
	chain      []string
	trackScope bool

	diags []domain.Diagnostic
	err   error
}

func (e *Evaluator) newVM(ctx context.Context, file string, scope *Scope, chain []string, trackScope bool) *vm {
	return &vm{
		ctx:        ctx,
		ev:         e,
		file:       domain.NewSymbol(file),
		scope:      scope,
		chain:      chain,
		trackScope: trackScope,
	}
}

func (v *vm) block(b syntax.Block) blockOutput {
	switch b := b.(type) {
	case *syntax.Heading:
		body := v.markup(b.Body)
		var label domain.Symbol
		if b.Label != "" {
			label = domain.NewSymbol(b.Label)
		}
		return v.output(&domain.Heading{Level: b.Level, Label: label, Body: body})
	case *syntax.Let:
		value := v.expr(b.Value)
		out := v.output(nil)
		out.Name = b.Name
		out.Value = value
		return out
	case *syntax.Paragraph:
		body := v.markup(b.Body)
		if isBlockLevel(body) {
			return v.output(body)
		}
		return v.output(&domain.Paragraph{Body: body})
	}
	return v.output(nil)
}

func (v *vm) output(c domain.Content) blockOutput {
	return blockOutput{Content: c, Diagnostics: v.diags}
}

// isBlockLevel reports whether c consists only of paragraphs, headings and
// page breaks, as produced by a paragraph holding a single include or
// outline call.
func isBlockLevel(c domain.Content) bool {
	switch n := c.(type) {
	case *domain.Paragraph, *domain.Heading, *domain.PageBreak:
		return true
	case *domain.Sequence:
		if len(n.Children) == 0 {
			return false
		}
		for _, child := range n.Children {
			if _, ok := child.(*domain.Space); ok {
				continue
			}
			if !isBlockLevel(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v *vm) span(pos syntax.Pos) domain.Span {
	return domain.Span{File: v.file, Line: pos.Line, Column: pos.Col}
}

// fail reports an error at pos and returns a value that carries it.
func (v *vm) fail(pos syntax.Pos, format string, args ...any) Value {
	d := domain.Errorf(v.span(pos), format, args...)
	v.diags = append(v.diags, d)
	return failedValue{Message: d.Message}
}

// abort records a failure that must end the computation rather than become a
// diagnostic.
func (v *vm) abort(err error) Value {
	if v.err == nil {
		v.err = err
	}
	return failedValue{Message: "aborted"}
}

func (v *vm) markup(nodes []syntax.Inline) domain.Content {
	parts := make([]domain.Content, 0, len(nodes))
	for _, n := range nodes {
		if c := v.inline(n); c != nil {
			parts = append(parts, c)
		}
	}
	return domain.NewSequence(parts...)
}

func (v *vm) inline(n syntax.Inline) domain.Content {
	switch n := n.(type) {
	case *syntax.Text:
		return domain.NewText(norm.NFC.String(n.Value))
	case *syntax.Space:
		return domain.NewSpace()
	case *syntax.Strong:
		return &domain.Strong{Body: v.markup(n.Body)}
	case *syntax.Emph:
		return &domain.Emph{Body: v.markup(n.Body)}
	case *syntax.Ref:
		return v.display(n.Pos, v.ref(n.Pos, n.Label))
	case *syntax.Embed:
		return v.display(n.Pos, v.expr(n.Expr))
	}
	return nil
}

// display turns a value into content.
func (v *vm) display(pos syntax.Pos, val Value) domain.Content {
	switch val := val.(type) {
	case NoneValue:
		return nil
	case ContentValue:
		return val.Body
	case StrValue:
		return textContent(string(val))
	case failedValue:
		return &domain.ErrorMarker{Message: val.Message}
	}
	if s, ok := repr(val); ok {
		return domain.NewText(s)
	}
	failed, _ := v.fail(pos, "cannot display value of type %s", val.TypeName()).(failedValue)
	return &domain.ErrorMarker{Message: failed.Message}
}

func (v *vm) expr(e syntax.Expr) Value {
	switch e := e.(type) {
	case *syntax.Ident:
		return v.lookup(e)
	case *syntax.None:
		return NoneValue{}
	case *syntax.Int:
		return IntValue(e.Value)
	case *syntax.Float:
		return FloatValue(e.Value)
	case *syntax.Str:
		return StrValue(norm.NFC.String(e.Value))
	case *syntax.Bool:
		return BoolValue(e.Value)
	case *syntax.ContentBlock:
		return ContentValue{Body: v.markup(e.Body)}
	case *syntax.Call:
		return v.call(e)
	case *syntax.Binary:
		return v.binary(e)
	case *syntax.ErrorExpr:
		return v.fail(e.Pos, "%s", e.Message)
	}
	return v.fail(syntax.Pos{}, "unsupported expression")
}

func (v *vm) lookup(id *syntax.Ident) Value {
	if v.trackScope {
		memo.Observe(v.ctx, scopeInput, id.Name, v.scope.Probe(id.Name))
	}
	if val, ok := v.scope.Lookup(id.Name); ok {
		return val
	}
	if _, ok := builtins[id.Name]; ok {
		return FuncValue{Name: id.Name}
	}
	return v.fail(id.Pos, "unknown variable: %s", id.Name)
}

func (v *vm) call(c *syntax.Call) Value {
	callee := v.expr(c.Callee)
	args := make([]Value, 0, len(c.Args))
	for _, a := range c.Args {
		args = append(args, v.expr(a))
	}
	if f, ok := callee.(failedValue); ok {
		return f
	}
	fn, ok := callee.(FuncValue)
	if !ok {
		return v.fail(c.Pos, "cannot call value of type %s", callee.TypeName())
	}
	for _, a := range args {
		if f, ok := a.(failedValue); ok {
			return f
		}
	}
	return builtins[fn.Name](v, c.Pos, args)
}

func (v *vm) binary(b *syntax.Binary) Value {
	left, right := v.expr(b.Left), v.expr(b.Right)
	if f, ok := left.(failedValue); ok {
		return f
	}
	if f, ok := right.(failedValue); ok {
		return f
	}

	switch b.Op {
	case '+':
		if out, ok := add(left, right); ok {
			return out
		}
	case '-':
		if out, ok := arith(left, right, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }); ok {
			return out
		}
	}
	return v.fail(b.Pos, "cannot apply '%c' to %s and %s", b.Op, left.TypeName(), right.TypeName())
}

func add(left, right Value) (Value, bool) {
	if out, ok := arith(left, right, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }); ok {
		return out, true
	}
	if _, ok := left.(NoneValue); ok {
		return right, true
	}
	if _, ok := right.(NoneValue); ok {
		return left, true
	}
	ls, lok := left.(StrValue)
	rs, rok := right.(StrValue)
	if lok && rok {
		return ls + rs, true
	}
	lc, lok := asContent(left)
	rc, rok := asContent(right)
	if lok && rok {
		return ContentValue{Body: domain.NewSequence(lc, rc)}, true
	}
	return nil, false
}

func arith(left, right Value, ints func(a, b int64) int64, floats func(a, b float64) float64) (Value, bool) {
	li, lInt := left.(IntValue)
	ri, rInt := right.(IntValue)
	if lInt && rInt {
		return IntValue(ints(int64(li), int64(ri))), true
	}
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		return FloatValue(floats(lf, rf)), true
	}
	return nil, false
}

func asFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case IntValue:
		return float64(v), true
	case FloatValue:
		return float64(v), true
	}
	return 0, false
}

// asContent accepts content and strings, which are implicitly converted.
func asContent(v Value) (domain.Content, bool) {
	switch v := v.(type) {
	case ContentValue:
		return v.Body, true
	case StrValue:
		return textContent(string(v)), true
	}
	return nil, false
}

// include evaluates another file in its own scope and splices in its content.
func (v *vm) include(pos syntax.Pos, file string) Value {
	file = cleanPath(file)
	if slices.Contains(v.chain, file) {
		return v.fail(pos, "cyclic include of %s", file)
	}
	chain := append(slices.Clone(v.chain), file)
	out, err := v.ev.evalInclude(v.ctx, file, chain)
	if err != nil {
		return v.abort(zerr.With(zerr.Wrap(err, "include failed"), "path", file))
	}
	if out.Failure != "" {
		return v.fail(pos, "%s", out.Failure)
	}
	v.diags = append(v.diags, out.Diagnostics...)
	return ContentValue{Body: out.Content}
}

// read loads a file from the world as a string.
func (v *vm) read(pos syntax.Pos, file string) Value {
	file = cleanPath(file)
	data, err := v.ev.world.read(v.ctx, file)
	switch {
	case errors.Is(err, domain.ErrFileNotFound):
		return v.fail(pos, "file not found: %s", file)
	case err != nil:
		return v.fail(pos, "cannot read %s: %v", file, err)
	}
	return StrValue(norm.NFC.String(string(data)))
}
