package domain

import (
	"strings"

	"go.trai.ch/quill/internal/core/memo"
)

// Content is an immutable node of the evaluated document. Nodes are shared by
// reference between the evaluator, the cache and layout, and are never
// mutated after construction. Each node caches its own fingerprint.
type Content interface {
	memo.Fingerprinter
	content()
}

// Decoration is a line or background drawn along text.
type Decoration int

const (
	// DecorationUnderline draws a line below the baseline.
	DecorationUnderline Decoration = iota
	// DecorationOverline draws a line above the text.
	DecorationOverline
	// DecorationStrike draws a line through the text.
	DecorationStrike
	// DecorationHighlight fills the background of the text.
	DecorationHighlight
)

func (d Decoration) String() string {
	switch d {
	case DecorationUnderline:
		return "underline"
	case DecorationOverline:
		return "overline"
	case DecorationStrike:
		return "strike"
	case DecorationHighlight:
		return "highlight"
	default:
		return "unknown"
	}
}

// Shift is a baseline shift.
type Shift int

const (
	// ShiftSuper raises text into superscript.
	ShiftSuper Shift = iota
	// ShiftSub lowers text into subscript.
	ShiftSub
)

// Text is a run of NFC-normalised text without line breaks.
type Text struct {
	Value string
	fp    memo.Lazy
}

// NewText creates a text run.
func NewText(s string) *Text { return &Text{Value: s} }

func (*Text) content() {}

// Fingerprint implements memo.Fingerprinter.
func (t *Text) Fingerprint() memo.Fingerprint {
	return t.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("text")
		h.String(t.Value)
		return h.Sum()
	})
}

// Space is a breakable inter-word space.
type Space struct {
	fp memo.Lazy
}

var space = &Space{}

// NewSpace returns the shared space node.
func NewSpace() *Space { return space }

func (*Space) content() {}

// Fingerprint implements memo.Fingerprinter.
func (s *Space) Fingerprint() memo.Fingerprint {
	return s.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("space")
		return h.Sum()
	})
}

// Sequence is an ordered group of content.
type Sequence struct {
	Children []Content
	fp       memo.Lazy
}

// NewSequence groups children. A single child is returned unwrapped and nil
// children are dropped.
func NewSequence(children ...Content) Content {
	kept := make([]Content, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &Sequence{Children: kept}
}

func (*Sequence) content() {}

// Fingerprint implements memo.Fingerprinter.
func (s *Sequence) Fingerprint() memo.Fingerprint {
	return s.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("sequence")
		h.Uint64(uint64(len(s.Children)))
		for _, c := range s.Children {
			h.Fingerprint(c.Fingerprint())
		}
		return h.Sum()
	})
}

// Strong renders its body in bold.
type Strong struct {
	Body Content
	fp   memo.Lazy
}

func (*Strong) content() {}

// Fingerprint implements memo.Fingerprinter.
func (s *Strong) Fingerprint() memo.Fingerprint {
	return s.fp.Get(func() memo.Fingerprint { return wrapped("strong", s.Body) })
}

// Emph renders its body in italics.
type Emph struct {
	Body Content
	fp   memo.Lazy
}

func (*Emph) content() {}

// Fingerprint implements memo.Fingerprinter.
func (e *Emph) Fingerprint() memo.Fingerprint {
	return e.fp.Get(func() memo.Fingerprint { return wrapped("emph", e.Body) })
}

// Decorated draws a decoration along its body.
type Decorated struct {
	Line Decoration
	Body Content
	fp   memo.Lazy
}

func (*Decorated) content() {}

// Fingerprint implements memo.Fingerprinter.
func (d *Decorated) Fingerprint() memo.Fingerprint {
	return d.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("decorated")
		h.Int(int(d.Line))
		h.Fingerprint(d.Body.Fingerprint())
		return h.Sum()
	})
}

// Shifted renders its body as synthetic super- or subscript.
type Shifted struct {
	Shift Shift
	Body  Content
	fp    memo.Lazy
}

func (*Shifted) content() {}

// Fingerprint implements memo.Fingerprinter.
func (s *Shifted) Fingerprint() memo.Fingerprint {
	return s.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("shifted")
		h.Int(int(s.Shift))
		h.Fingerprint(s.Body.Fingerprint())
		return h.Sum()
	})
}

// Paragraph is a block of inline content broken into lines by layout.
// Span locates its source block and is not part of the fingerprint.
type Paragraph struct {
	Body Content
	Span Span
	fp   memo.Lazy
}

func (*Paragraph) content() {}

// Fingerprint implements memo.Fingerprinter.
func (p *Paragraph) Fingerprint() memo.Fingerprint {
	return p.fp.Get(func() memo.Fingerprint { return wrapped("paragraph", p.Body) })
}

// Heading is a numbered section heading. Label may be zero. Span locates
// its source block and is not part of the fingerprint.
type Heading struct {
	Level int
	Label Symbol
	Body  Content
	Span  Span
	fp    memo.Lazy
}

func (*Heading) content() {}

// Fingerprint implements memo.Fingerprinter.
func (hd *Heading) Fingerprint() memo.Fingerprint {
	return hd.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("heading")
		h.Int(hd.Level)
		hd.Label.Hash(h)
		h.Fingerprint(hd.Body.Fingerprint())
		return h.Sum()
	})
}

// Locate returns c placed at span when c is a paragraph or heading without a
// location of its own. Other content is returned unchanged.
func Locate(c Content, span Span) Content {
	switch n := c.(type) {
	case *Paragraph:
		if n.Span.Line == 0 {
			return &Paragraph{Body: n.Body, Span: span}
		}
	case *Heading:
		if n.Span.Line == 0 {
			return &Heading{Level: n.Level, Label: n.Label, Body: n.Body, Span: span}
		}
	}
	return c
}

// PageBreak forces the following content onto a new page.
type PageBreak struct {
	fp memo.Lazy
}

func (*PageBreak) content() {}

// Fingerprint implements memo.Fingerprinter.
func (p *PageBreak) Fingerprint() memo.Fingerprint {
	return p.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("pagebreak")
		return h.Sum()
	})
}

// ErrorMarker stands in for content that failed to evaluate. The matching
// diagnostic is reported separately.
type ErrorMarker struct {
	Message string
	fp      memo.Lazy
}

func (*ErrorMarker) content() {}

// Fingerprint implements memo.Fingerprinter.
func (e *ErrorMarker) Fingerprint() memo.Fingerprint {
	return e.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("error")
		h.String(e.Message)
		return h.Sum()
	})
}

func wrapped(tag string, body Content) memo.Fingerprint {
	h := memo.NewHasher()
	h.Tag(tag)
	h.Fingerprint(body.Fingerprint())
	return h.Sum()
}

// PlainText flattens content to its text, dropping styling.
func PlainText(c Content) string {
	var b strings.Builder
	writePlain(&b, c)
	return b.String()
}

func writePlain(b *strings.Builder, c Content) {
	switch n := c.(type) {
	case *Text:
		b.WriteString(n.Value)
	case *Space:
		b.WriteByte(' ')
	case *Sequence:
		for _, child := range n.Children {
			writePlain(b, child)
		}
	case *Strong:
		writePlain(b, n.Body)
	case *Emph:
		writePlain(b, n.Body)
	case *Decorated:
		writePlain(b, n.Body)
	case *Shifted:
		writePlain(b, n.Body)
	case *Paragraph:
		writePlain(b, n.Body)
	case *Heading:
		writePlain(b, n.Body)
	}
}
