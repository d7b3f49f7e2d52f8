package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quill/internal/syntax"
)

func TestParse_SplitsBlocks(t *testing.T) {
	src := "= Intro <intro>\nFirst paragraph\ncontinues here.\n\n// a comment\n#let name = \"quill\"\n\nSecond *bold* and _emph_."

	f := syntax.Parse("main.qd", src)
	require.Len(t, f.Blocks, 4)

	h, ok := f.Blocks[0].(*syntax.Heading)
	require.True(t, ok)
	assert.Equal(t, 1, h.Level)
	assert.Equal(t, "intro", h.Label)
	assert.Equal(t, 1, h.StartLine())
	require.Len(t, h.Body, 1)
	assert.Equal(t, &syntax.Text{Pos: syntax.Pos{Line: 1, Col: 3}, Value: "Intro"}, h.Body[0])

	p, ok := f.Blocks[1].(*syntax.Paragraph)
	require.True(t, ok)
	assert.Equal(t, 2, p.StartLine())

	l, ok := f.Blocks[2].(*syntax.Let)
	require.True(t, ok)
	assert.Equal(t, "name", l.Name)
	assert.Equal(t, 6, l.StartLine())
	assert.Equal(t, &syntax.Str{Pos: syntax.Pos{Line: 1, Col: 13}, Value: "quill"}, l.Value)

	p, ok = f.Blocks[3].(*syntax.Paragraph)
	require.True(t, ok)
	assert.Equal(t, 8, p.StartLine())
	require.Len(t, p.Body, 8)
	assert.IsType(t, &syntax.Strong{}, p.Body[2])
	assert.IsType(t, &syntax.Emph{}, p.Body[6])
}

func TestParse_HeadingLevels(t *testing.T) {
	f := syntax.Parse("x", "=== Deep\n\n========= Deeper")
	require.Len(t, f.Blocks, 2)
	assert.Equal(t, 3, f.Blocks[0].(*syntax.Heading).Level)
	assert.Equal(t, 6, f.Blocks[1].(*syntax.Heading).Level)
}

func TestParse_RefsAndEscapes(t *testing.T) {
	f := syntax.Parse("x", `See @intro. Mail a\@b or \*not bold\*.`)
	p := f.Blocks[0].(*syntax.Paragraph)

	require.IsType(t, &syntax.Ref{}, p.Body[2])
	assert.Equal(t, "intro", p.Body[2].(*syntax.Ref).Label)
	assert.Equal(t, &syntax.Text{Pos: syntax.Pos{Line: 1, Col: 11}, Value: "."}, p.Body[3])

	var words []string
	for _, n := range p.Body {
		if txt, ok := n.(*syntax.Text); ok {
			words = append(words, txt.Value)
		}
	}
	assert.Equal(t, []string{"See", ".", "Mail", "a@b", "or", "*not", "bold*."}, words)
}

func TestParse_EmbeddedCalls(t *testing.T) {
	f := syntax.Parse("x", `Call #underline[text] and #repeat(2, [ab]) and #x.`)
	p := f.Blocks[0].(*syntax.Paragraph)

	embed, ok := p.Body[2].(*syntax.Embed)
	require.True(t, ok)
	call, ok := embed.Expr.(*syntax.Call)
	require.True(t, ok)
	assert.Equal(t, &syntax.Ident{Pos: syntax.Pos{Line: 1, Col: 7}, Name: "underline"}, call.Callee)
	require.Len(t, call.Args, 1)
	assert.IsType(t, &syntax.ContentBlock{}, call.Args[0])

	embed = p.Body[6].(*syntax.Embed)
	call = embed.Expr.(*syntax.Call)
	require.Len(t, call.Args, 2)
	assert.Equal(t, &syntax.Int{Pos: syntax.Pos{Line: 1, Col: 35}, Value: 2}, call.Args[0])

	embed = p.Body[10].(*syntax.Embed)
	assert.Equal(t, &syntax.Ident{Pos: syntax.Pos{Line: 1, Col: 49}, Name: "x"}, embed.Expr)
}

func TestParse_Expressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want syntax.Expr
	}{
		{
			name: "binary",
			src:  `#let v = 1 + 2.5 - x`,
			want: &syntax.Binary{
				Pos: syntax.Pos{Line: 1, Col: 18},
				Op:  '-',
				Left: &syntax.Binary{
					Pos:   syntax.Pos{Line: 1, Col: 12},
					Op:    '+',
					Left:  &syntax.Int{Pos: syntax.Pos{Line: 1, Col: 10}, Value: 1},
					Right: &syntax.Float{Pos: syntax.Pos{Line: 1, Col: 14}, Value: 2.5},
				},
				Right: &syntax.Ident{Pos: syntax.Pos{Line: 1, Col: 20}, Name: "x"},
			},
		},
		{
			name: "literals",
			src:  `#let v = f(true, none, -3, "a\"b")`,
			want: &syntax.Call{
				Pos:    syntax.Pos{Line: 1, Col: 10},
				Callee: &syntax.Ident{Pos: syntax.Pos{Line: 1, Col: 10}, Name: "f"},
				Args: []syntax.Expr{
					&syntax.Bool{Pos: syntax.Pos{Line: 1, Col: 12}, Value: true},
					&syntax.None{Pos: syntax.Pos{Line: 1, Col: 18}},
					&syntax.Int{Pos: syntax.Pos{Line: 1, Col: 24}, Value: -3},
					&syntax.Str{Pos: syntax.Pos{Line: 1, Col: 28}, Value: `a"b`},
				},
			},
		},
		{
			name: "unterminated string",
			src:  `#let v = "abc`,
			want: &syntax.ErrorExpr{Pos: syntax.Pos{Line: 1, Col: 10}, Message: "unterminated string"},
		},
		{
			name: "missing equals",
			src:  `#let v 3`,
			want: &syntax.ErrorExpr{Pos: syntax.Pos{Line: 1, Col: 8}, Message: "expected '=' after binding name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := syntax.Parse("x", tt.src)
			require.Len(t, f.Blocks, 1)
			l, ok := f.Blocks[0].(*syntax.Let)
			require.True(t, ok)
			assert.Equal(t, tt.want, l.Value)
		})
	}
}

func TestParse_UnclosedContentBlock(t *testing.T) {
	f := syntax.Parse("x", "before #strong[never closed")
	p := f.Blocks[0].(*syntax.Paragraph)
	embed := p.Body[2].(*syntax.Embed)
	call := embed.Expr.(*syntax.Call)
	assert.IsType(t, &syntax.ErrorExpr{}, call.Args[0])
}

func TestBlockFingerprint_IgnoresAbsoluteLine(t *testing.T) {
	a := syntax.Parse("x", "Hello *world*.")
	b := syntax.Parse("x", "\n\n\nHello *world*.")
	c := syntax.Parse("x", "Hello *world*!")

	assert.Equal(t, 1, a.Blocks[0].StartLine())
	assert.Equal(t, 4, b.Blocks[0].StartLine())
	assert.Equal(t, a.Blocks[0].Fingerprint(), b.Blocks[0].Fingerprint())
	assert.NotEqual(t, a.Blocks[0].Fingerprint(), c.Blocks[0].Fingerprint())
}
