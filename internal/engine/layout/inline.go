package layout

import (
	"slices"
	"unicode"

	"go.trai.ch/quill/internal/core/domain"
)

// Vertical metrics in em.
const (
	ascent  = 0.8
	descent = 0.2

	superRise   = -0.5
	subDrop     = 0.2
	scriptScale = 0.6

	underlineOffset = 0.15
	strikeOffset    = -0.3
	overlineOffset  = -0.8
	lineThickness   = 0.05
)

// style is the inherited text style while walking inline content.
type style struct {
	font  domain.Font
	shift float64
	decos []domain.Decoration
}

// piece is a run of text or a space with a uniform style.
type piece struct {
	text  string
	space bool
	font  domain.Font
	shift float64
	decos []domain.Decoration
	width float64
}

// token is a breakable space or an unbreakable cluster of pieces.
type token struct {
	pieces []piece
	width  float64
	space  bool
}

type inliner struct {
	metrics Metrics
	tokens  []token
}

// tokenize walks inline content into tokens. Adjacent text without a space
// between it forms one cluster.
func tokenize(c domain.Content, base style, m Metrics) []token {
	in := &inliner{metrics: m}
	in.walk(c, base)
	return in.tokens
}

func (in *inliner) walk(c domain.Content, st style) {
	switch n := c.(type) {
	case *domain.Text:
		in.text(n.Value, st)
	case *domain.Space:
		in.space(st)
	case *domain.Sequence:
		for _, child := range n.Children {
			in.walk(child, st)
		}
	case *domain.Strong:
		st.font.Bold = true
		in.walk(n.Body, st)
	case *domain.Emph:
		st.font.Italic = true
		in.walk(n.Body, st)
	case *domain.Decorated:
		st.decos = append(slices.Clip(st.decos), n.Line)
		in.walk(n.Body, st)
	case *domain.Shifted:
		rise := subDrop
		if n.Shift == domain.ShiftSuper {
			rise = superRise
		}
		st.shift += rise * st.font.Size
		st.font.Size *= scriptScale
		in.walk(n.Body, st)
	case *domain.Paragraph:
		in.space(st)
		in.walk(n.Body, st)
		in.space(st)
	case *domain.Heading:
		in.walk(n.Body, st)
	}
}

func (in *inliner) text(s string, st style) {
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				in.word(s[start:i], st)
				start = -1
			}
			in.space(st)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		in.word(s[start:], st)
	}
}

func (in *inliner) word(s string, st style) {
	p := piece{
		text:  s,
		font:  st.font,
		shift: st.shift,
		decos: st.decos,
		width: in.metrics.Advance(s, st.font),
	}
	n := len(in.tokens)
	if n == 0 || in.tokens[n-1].space {
		in.tokens = append(in.tokens, token{pieces: []piece{p}, width: p.width})
		return
	}
	last := &in.tokens[n-1]
	if k := len(last.pieces) - 1; sameStyle(last.pieces[k], p) {
		last.pieces[k].text += p.text
		last.pieces[k].width += p.width
	} else {
		last.pieces = append(last.pieces, p)
	}
	last.width += p.width
}

func (in *inliner) space(st style) {
	n := len(in.tokens)
	if n > 0 && in.tokens[n-1].space {
		return
	}
	w := in.metrics.SpaceWidth(st.font)
	p := piece{space: true, font: st.font, shift: st.shift, decos: st.decos, width: w}
	in.tokens = append(in.tokens, token{pieces: []piece{p}, width: w, space: true})
}

func sameStyle(a, b piece) bool {
	return a.font == b.font && a.shift == b.shift && slices.Equal(a.decos, b.decos)
}

// breakLines fills lines greedily. A cluster wider than the line is placed
// alone and reported through overflow.
func breakLines(tokens []token, width float64, overflow func(excess float64)) [][]token {
	var (
		lines   [][]token
		line    []token
		lineW   float64
		pending *token
	)
	for i := range tokens {
		tok := &tokens[i]
		if tok.space {
			if len(line) > 0 {
				pending = tok
			}
			continue
		}
		gap := 0.0
		if pending != nil {
			gap = pending.width
		}
		if len(line) > 0 && lineW+gap+tok.width > width {
			lines = append(lines, line)
			line, lineW, pending = nil, 0, nil
		}
		if pending != nil {
			line = append(line, *pending)
			lineW += pending.width
			pending = nil
		}
		line = append(line, *tok)
		lineW += tok.width
		if tok.width > width {
			overflow(tok.width - width)
		}
	}
	if len(line) > 0 {
		lines = append(lines, line)
	}
	return lines
}

// renderLine builds the frame of one line. Highlights are drawn first so
// that text stays on top.
func renderLine(line []token, width, baseSize float64) *domain.Frame {
	size := baseSize
	for _, tok := range line {
		for _, p := range tok.pieces {
			size = max(size, p.font.Size)
		}
	}
	baseline := ascent * size

	var back, front []domain.Positioned
	x := 0.0
	for _, tok := range line {
		for _, p := range tok.pieces {
			for _, d := range p.decos {
				back, front = decorate(back, front, d, p, x, baseline)
			}
			if !p.space {
				front = append(front, domain.Positioned{
					Pos:  domain.Point{X: x, Y: baseline + p.shift},
					Item: domain.TextItem{Text: p.text, Font: p.font, Width: p.width},
				})
			}
			x += p.width
		}
	}
	return domain.NewFrame(domain.Size{W: width, H: (ascent + descent) * size}, append(back, front...))
}

// decorate draws d along p. Lines follow the unshifted baseline.
func decorate(back, front []domain.Positioned, d domain.Decoration, p piece, x, baseline float64) ([]domain.Positioned, []domain.Positioned) {
	em := p.font.Size
	var offset float64
	switch d {
	case domain.DecorationHighlight:
		rect := domain.Positioned{
			Pos:  domain.Point{X: x, Y: baseline - ascent*em},
			Item: domain.ShapeItem{Kind: domain.ShapeRect, Size: domain.Size{W: p.width, H: (ascent + descent) * em}},
		}
		return append(back, rect), front
	case domain.DecorationUnderline:
		offset = underlineOffset
	case domain.DecorationStrike:
		offset = strikeOffset
	case domain.DecorationOverline:
		offset = overlineOffset
	}
	line := domain.Positioned{
		Pos:  domain.Point{X: x, Y: baseline + offset*em},
		Item: domain.ShapeItem{Kind: domain.ShapeLine, Size: domain.Size{W: p.width, H: lineThickness * em}},
	}
	return back, append(front, line)
}
