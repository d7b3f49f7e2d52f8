package introspect_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quill/internal/core/memo"
	"go.trai.ch/quill/internal/engine/introspect"
)

func registry(pages int, headings ...introspect.HeadingInfo) *introspect.Introspector {
	r := introspect.NewRegistry()
	for _, h := range headings {
		r.AddHeading(h)
	}
	r.SetPageCount(pages)
	return r.Snapshot()
}

func TestIntrospector_Queries(t *testing.T) {
	in := registry(3,
		introspect.HeadingInfo{Label: "intro", Number: "1", Title: "Intro", Level: 1, Page: 1},
		introspect.HeadingInfo{Label: "intro", Number: "2", Title: "Again", Level: 1, Page: 2},
		introspect.HeadingInfo{Number: "3", Title: "Unlabelled", Level: 1, Page: 3},
	)
	ctx := context.Background()

	h, ok := in.Heading(ctx, "intro")
	require.True(t, ok)
	assert.Equal(t, "1", h.Number)
	assert.Equal(t, "Intro", h.Title)

	page, ok := in.HeadingPage(ctx, "intro")
	require.True(t, ok)
	assert.Equal(t, 1, page)

	_, ok = in.Heading(ctx, "missing")
	assert.False(t, ok)

	assert.Equal(t, 3, in.PageCount(ctx))
	assert.Len(t, in.Outline(ctx), 3)
	assert.Len(t, in.Queries(), 5)
}

func TestIntrospector_ObservesIntoTracker(t *testing.T) {
	in := registry(2)
	tr := memo.NewTracker()
	ctx := memo.WithTracker(context.Background(), tr)

	in.PageCount(ctx)
	constraints := tr.Constraints()
	require.Len(t, constraints, 1)
	assert.Equal(t, introspect.InputName, constraints[0].Input)

	assert.True(t, memo.Valid(constraints, memo.Inputs{introspect.InputName: registry(2)}))
	assert.False(t, memo.Valid(constraints, memo.Inputs{introspect.InputName: registry(3)}))
}

func TestStable(t *testing.T) {
	ctx := context.Background()
	prev := registry(1, introspect.HeadingInfo{Label: "a", Number: "1", Title: "A", Page: 1, Y: 10})
	prev.Heading(ctx, "a")

	moved := registry(1, introspect.HeadingInfo{Label: "a", Number: "1", Title: "A", Page: 1, Y: 50})
	stable, changed := introspect.Stable(prev, moved)
	assert.True(t, stable, "position is not part of any recorded answer")
	assert.Empty(t, changed)

	renumbered := registry(1, introspect.HeadingInfo{Label: "a", Number: "2", Title: "A", Page: 1})
	stable, changed = introspect.Stable(prev, renumbered)
	assert.False(t, stable)
	assert.Equal(t, []string{"heading:a"}, changed)
}

func TestProbe_RecordsValidationReads(t *testing.T) {
	in := introspect.Empty()
	in.Probe("pagecount")
	assert.Contains(t, in.Queries(), "pagecount")

	in.Answer("outline")
	assert.NotContains(t, in.Queries(), "outline")
}
