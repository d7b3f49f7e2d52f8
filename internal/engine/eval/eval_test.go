package eval_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/memo"
	"go.trai.ch/quill/internal/engine/eval"
	"go.trai.ch/quill/internal/engine/introspect"
	"go.trai.ch/quill/internal/syntax"
	"go.trai.ch/zerr"
)

type memWorld struct {
	mu    sync.Mutex
	files map[string]string
}

func newWorld(files map[string]string) *memWorld {
	return &memWorld{files: files}
}

func (w *memWorld) Read(path string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	src, ok := w.files[path]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrFileNotFound, "read"), "path", path)
	}
	return []byte(src), nil
}

func (w *memWorld) set(path, src string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = src
}

func evaluate(t *testing.T, cache *memo.Cache, world *memWorld, intro *introspect.Introspector, src string) eval.Result {
	t.Helper()
	res, err := eval.New(cache, world, intro).EvalFile(context.Background(), syntax.Parse("main.qd", src))
	require.NoError(t, err)
	return res
}

func messages(diags []domain.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

func TestEvalFile_Markup(t *testing.T) {
	res := evaluate(t, memo.New(), newWorld(nil), introspect.Empty(), "= Intro <intro>\nHello *world*.")

	seq, ok := res.Content.(*domain.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Children, 2)

	h, ok := seq.Children[0].(*domain.Heading)
	require.True(t, ok)
	assert.Equal(t, "intro", h.Label.String())
	assert.Equal(t, "Intro", domain.PlainText(h))

	p, ok := seq.Children[1].(*domain.Paragraph)
	require.True(t, ok)
	assert.Equal(t, "Hello world.", domain.PlainText(p))
	assert.Empty(t, res.Diagnostics)
}

func TestEvalFile_Bindings(t *testing.T) {
	src := "#let name = \"quill\"\n\n#let total = 1 + 2.5\n\nHello #name, #total and #upper(name)."
	res := evaluate(t, memo.New(), newWorld(nil), introspect.Empty(), src)

	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, "Hello quill, 3.5 and QUILL.", domain.PlainText(res.Content))
}

func TestEvalFile_UnknownVariable(t *testing.T) {
	cache := memo.New()
	world := newWorld(nil)

	res := evaluate(t, cache, world, introspect.Empty(), "\n\nHello #missing.")
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, domain.SeverityError, d.Severity)
	assert.Equal(t, "unknown variable: missing", d.Message)
	assert.Equal(t, domain.Span{File: domain.NewSymbol("main.qd"), Line: 3, Column: 8}, d.Span)

	p := res.Content.(*domain.Paragraph)
	seq := p.Body.(*domain.Sequence)
	assert.IsType(t, &domain.ErrorMarker{}, seq.Children[2])

	// Defining the name invalidates the cached failure.
	res = evaluate(t, cache, world, introspect.Empty(), "#let missing = 1\n\nHello #missing.")
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, "Hello 1.", domain.PlainText(res.Content))
}

func TestEvalFile_ReusesUnchangedBlocks(t *testing.T) {
	cache := memo.New()
	world := newWorld(nil)
	src := "= One\n\nFirst paragraph.\n\nSecond paragraph."

	first := evaluate(t, cache, world, introspect.Empty(), src)
	before := cache.Stats()

	second := evaluate(t, cache, world, introspect.Empty(), "= One\n\nFirst paragraph.\n\nSecond paragraph, edited.")
	delta := cache.Stats().Sub(before)

	assert.Equal(t, uint64(2), delta.Hits)
	assert.Equal(t, uint64(1), delta.Misses)

	firstSeq := first.Content.(*domain.Sequence)
	secondSeq := second.Content.(*domain.Sequence)
	firstPara := firstSeq.Children[1].(*domain.Paragraph)
	secondPara := secondSeq.Children[1].(*domain.Paragraph)
	assert.Same(t, firstPara.Body, secondPara.Body)
	assert.NotEqual(t, firstSeq.Children[2].Fingerprint(), secondSeq.Children[2].Fingerprint())
}

func TestEvalFile_LocatesBlocks(t *testing.T) {
	cache := memo.New()
	world := newWorld(map[string]string{"chapter.qd": "Intro.\n\n= Chapter"})
	mainFile := domain.NewSymbol("main.qd")

	res := evaluate(t, cache, world, introspect.Empty(), "= One\n\nFirst.\n\n#include(\"chapter.qd\")")
	seq := res.Content.(*domain.Sequence)
	require.Len(t, seq.Children, 3)
	assert.Equal(t, domain.Span{File: mainFile, Line: 1, Column: 1}, seq.Children[0].(*domain.Heading).Span)
	assert.Equal(t, domain.Span{File: mainFile, Line: 3, Column: 1}, seq.Children[1].(*domain.Paragraph).Span)

	included := seq.Children[2].(*domain.Sequence)
	chapter := domain.NewSymbol("chapter.qd")
	assert.Equal(t, domain.Span{File: chapter, Line: 1, Column: 1}, included.Children[0].(*domain.Paragraph).Span)
	assert.Equal(t, domain.Span{File: chapter, Line: 3, Column: 1}, included.Children[1].(*domain.Heading).Span)

	// A moved block keeps its cached body and gets its new location.
	moved := evaluate(t, cache, world, introspect.Empty(), "= One\n\n\n\nFirst.")
	para := moved.Content.(*domain.Sequence).Children[1].(*domain.Paragraph)
	assert.Equal(t, 5, para.Span.Line)
	assert.Same(t, seq.Children[1].(*domain.Paragraph).Body, para.Body)
}

func TestEvalFile_Read(t *testing.T) {
	cache := memo.New()
	world := newWorld(map[string]string{"data.txt": "v1"})
	src := `Value: #read("data.txt")`

	res := evaluate(t, cache, world, introspect.Empty(), src)
	assert.Equal(t, "Value: v1", domain.PlainText(res.Content))

	world.set("data.txt", "v2")
	res = evaluate(t, cache, world, introspect.Empty(), src)
	assert.Equal(t, "Value: v2", domain.PlainText(res.Content))

	res = evaluate(t, cache, world, introspect.Empty(), `#read("nope.txt")`)
	assert.Equal(t, []string{"file not found: nope.txt"}, messages(res.Diagnostics))
}

func TestEvalFile_Include(t *testing.T) {
	world := newWorld(map[string]string{
		"chapter.qd": "= Chapter\nBody #undefined",
		"loop.qd":    `#include("main.qd")`,
	})

	res := evaluate(t, memo.New(), world, introspect.Empty(), "Intro.\n\n#include(\"chapter.qd\")")
	seq := res.Content.(*domain.Sequence)
	require.Len(t, seq.Children, 2)
	assert.IsType(t, &domain.Paragraph{}, seq.Children[0])

	included := seq.Children[1].(*domain.Sequence)
	assert.IsType(t, &domain.Heading{}, included.Children[0])
	assert.IsType(t, &domain.Paragraph{}, included.Children[1])

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, domain.Span{File: domain.NewSymbol("chapter.qd"), Line: 2, Column: 7}, res.Diagnostics[0].Span)

	res = evaluate(t, memo.New(), world, introspect.Empty(), `#include("loop.qd")`)
	assert.Equal(t, []string{"cyclic include of main.qd"}, messages(res.Diagnostics))

	res = evaluate(t, memo.New(), world, introspect.Empty(), `#include("missing.qd")`)
	assert.Equal(t, []string{"file not found: missing.qd"}, messages(res.Diagnostics))
}

func TestEvalFile_Scripts(t *testing.T) {
	res := evaluate(t, memo.New(), newWorld(nil), introspect.Empty(), "x#super[2] and H#sub[2]O and #sub[abc]")
	p := res.Content.(*domain.Paragraph)
	seq := p.Body.(*domain.Sequence)

	assert.Equal(t, "x", seq.Children[0].(*domain.Text).Value)
	assert.Equal(t, "²", seq.Children[1].(*domain.Text).Value)

	last := seq.Children[len(seq.Children)-1]
	shifted, ok := last.(*domain.Shifted)
	require.True(t, ok)
	assert.Equal(t, domain.ShiftSub, shifted.Shift)
	assert.Contains(t, domain.PlainText(p), "H₂O")
}

func TestEvalFile_Introspection(t *testing.T) {
	reg := introspect.NewRegistry()
	reg.AddHeading(introspect.HeadingInfo{Label: "intro", Number: "1", Title: "Intro", Level: 1, Page: 2})
	reg.SetPageCount(4)
	intro := reg.Snapshot()

	src := "See @intro on page #pageref(\"intro\") of #pagecount()."
	res := evaluate(t, memo.New(), newWorld(nil), intro, src)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, "See Section 1 on page 2 of 4.", domain.PlainText(res.Content))

	res = evaluate(t, memo.New(), newWorld(nil), introspect.Empty(), "See @intro.")
	assert.Equal(t, []string{"label <intro> does not exist in the document"}, messages(res.Diagnostics))
}

func TestEvalFile_BlockLevelCalls(t *testing.T) {
	res := evaluate(t, memo.New(), newWorld(nil), introspect.Empty(), "#pagebreak()")
	assert.IsType(t, &domain.PageBreak{}, res.Content)
}

func TestEvalFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "type mismatch", src: `#let bad = 1 + "x"`, want: "cannot apply '+' to int and str"},
		{name: "arity", src: `#strong()`, want: "strong expects 1 argument, found 0"},
		{name: "not callable", src: `#let n = 3

#n(1)`, want: "cannot call value of type int"},
		{name: "repeat bounds", src: `#repeat(-1, [x])`, want: "repeat count must be between 0 and 10000, found -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := evaluate(t, memo.New(), newWorld(nil), introspect.Empty(), tt.src)
			assert.Equal(t, []string{tt.want}, messages(res.Diagnostics))
		})
	}
}
