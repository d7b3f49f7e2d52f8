// Package syntax parses quill markup into blocks of inline markup and
// expressions.
//
// Positions inside a block are relative to the block, so a block that is
// merely moved by an edit above it keeps its fingerprint. Each block records
// its absolute start line separately.
package syntax

import (
	"go.trai.ch/quill/internal/core/memo"
)

// Pos is a 1-based line and column relative to the start of a block.
type Pos struct {
	Line int
	Col  int
}

// File is a parsed source file.
type File struct {
	Path   string
	Blocks []Block
}

// Block is a top-level unit of a file: a heading, a binding or a paragraph.
type Block interface {
	memo.Fingerprinter
	// StartLine is the absolute 1-based line the block begins on.
	StartLine() int
	block()
}

// Heading is a `= Title <label>` line.
type Heading struct {
	Line  int
	Level int
	Label string
	Body  []Inline
	fp    memo.Lazy
}

// StartLine implements Block.
func (h *Heading) StartLine() int { return h.Line }

func (*Heading) block() {}

// Fingerprint implements memo.Fingerprinter. The absolute line is excluded.
func (h *Heading) Fingerprint() memo.Fingerprint {
	return h.fp.Get(func() memo.Fingerprint {
		hs := memo.NewHasher()
		hs.Tag("syntax.heading")
		hs.Int(h.Level)
		hs.String(h.Label)
		hs.Value(h.Body)
		return hs.Sum()
	})
}

// Let is a `#let name = value` binding.
type Let struct {
	Line    int
	Name    string
	NamePos Pos
	Value   Expr
	fp      memo.Lazy
}

// StartLine implements Block.
func (l *Let) StartLine() int { return l.Line }

func (*Let) block() {}

// Fingerprint implements memo.Fingerprinter. The absolute line is excluded.
func (l *Let) Fingerprint() memo.Fingerprint {
	return l.fp.Get(func() memo.Fingerprint {
		hs := memo.NewHasher()
		hs.Tag("syntax.let")
		hs.String(l.Name)
		hs.Value(l.NamePos)
		hs.Value(l.Value)
		return hs.Sum()
	})
}

// Paragraph is a run of inline markup.
type Paragraph struct {
	Line int
	Body []Inline
	fp   memo.Lazy
}

// StartLine implements Block.
func (p *Paragraph) StartLine() int { return p.Line }

func (*Paragraph) block() {}

// Fingerprint implements memo.Fingerprinter. The absolute line is excluded.
func (p *Paragraph) Fingerprint() memo.Fingerprint {
	return p.fp.Get(func() memo.Fingerprint {
		hs := memo.NewHasher()
		hs.Tag("syntax.paragraph")
		hs.Value(p.Body)
		return hs.Sum()
	})
}

// Inline is a markup node.
type Inline interface {
	inline()
}

// Text is a word of literal text.
type Text struct {
	Pos   Pos
	Value string
}

// Space is whitespace between words, including line breaks.
type Space struct {
	Pos Pos
}

// Strong is `*...*` markup.
type Strong struct {
	Pos  Pos
	Body []Inline
}

// Emph is `_..._` markup.
type Emph struct {
	Pos  Pos
	Body []Inline
}

// Ref is an `@label` reference.
type Ref struct {
	Pos   Pos
	Label string
}

// Embed is a `#expr` expression embedded in markup.
type Embed struct {
	Pos  Pos
	Expr Expr
}

func (*Text) inline()   {}
func (*Space) inline()  {}
func (*Strong) inline() {}
func (*Emph) inline()   {}
func (*Ref) inline()    {}
func (*Embed) inline()  {}

// Expr is an expression node.
type Expr interface {
	Position() Pos
	expr()
}

// Ident is a variable or function name.
type Ident struct {
	Pos  Pos
	Name string
}

// None is the `none` literal.
type None struct {
	Pos Pos
}

// Int is an integer literal.
type Int struct {
	Pos   Pos
	Value int64
}

// Float is a floating point literal.
type Float struct {
	Pos   Pos
	Value float64
}

// Str is a string literal.
type Str struct {
	Pos   Pos
	Value string
}

// Bool is a boolean literal.
type Bool struct {
	Pos   Pos
	Value bool
}

// ContentBlock is a `[...]` block of markup.
type ContentBlock struct {
	Pos  Pos
	Body []Inline
}

// Call applies a callee to arguments. Trailing content blocks are appended
// to Args.
type Call struct {
	Pos    Pos
	Callee Expr
	Args   []Expr
}

// Binary is `left op right` where op is '+' or '-'.
type Binary struct {
	Pos   Pos
	Op    rune
	Left  Expr
	Right Expr
}

// ErrorExpr stands in for input that failed to parse.
type ErrorExpr struct {
	Pos     Pos
	Message string
}

func (e *Ident) Position() Pos        { return e.Pos }
func (e *None) Position() Pos         { return e.Pos }
func (e *Int) Position() Pos          { return e.Pos }
func (e *Float) Position() Pos        { return e.Pos }
func (e *Str) Position() Pos          { return e.Pos }
func (e *Bool) Position() Pos         { return e.Pos }
func (e *ContentBlock) Position() Pos { return e.Pos }
func (e *Call) Position() Pos         { return e.Pos }
func (e *Binary) Position() Pos       { return e.Pos }
func (e *ErrorExpr) Position() Pos    { return e.Pos }

func (*Ident) expr()        {}
func (*None) expr()         {}
func (*Int) expr()          {}
func (*Float) expr()        {}
func (*Str) expr()          {}
func (*Bool) expr()         {}
func (*ContentBlock) expr() {}
func (*Call) expr()         {}
func (*Binary) expr()       {}
func (*ErrorExpr) expr()    {}
