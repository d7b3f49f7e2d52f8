package domain

import (
	"fmt"
	"io"
	"math"
	"strings"

	"go.trai.ch/quill/internal/core/memo"
)

// Point is a position in points, relative to the top-left corner of the
// enclosing frame.
type Point struct {
	X float64
	Y float64
}

// Size is a width and height in points.
type Size struct {
	W float64
	H float64
}

// Font selects how a text item is drawn.
type Font struct {
	Size   float64
	Bold   bool
	Italic bool
}

// FrameItem is a drawable element of a frame.
type FrameItem interface {
	memo.Hashable
	dump(w io.Writer, pos Point, depth int)
}

// TextItem is a shaped run of text whose baseline starts at its position.
type TextItem struct {
	Text  string
	Font  Font
	Width float64
}

// Hash implements memo.Hashable.
func (t TextItem) Hash(h *memo.Hasher) {
	h.Tag("text")
	h.String(t.Text)
	h.Float64(t.Font.Size)
	h.Bool(t.Font.Bold)
	h.Bool(t.Font.Italic)
	h.Float64(t.Width)
}

func (t TextItem) dump(w io.Writer, pos Point, depth int) {
	style := ""
	if t.Font.Bold {
		style += " bold"
	}
	if t.Font.Italic {
		style += " italic"
	}
	fmt.Fprintf(w, "%stext %.2f,%.2f size=%.2f%s %q\n", indent(depth), pos.X, pos.Y, t.Font.Size, style, t.Text)
}

// ShapeKind selects the geometry of a shape item.
type ShapeKind int

const (
	// ShapeLine is a horizontal line of the given width and thickness.
	ShapeLine ShapeKind = iota
	// ShapeRect is a filled rectangle.
	ShapeRect
)

// ShapeItem is a line or filled rectangle. For lines, Size.H is the stroke
// thickness.
type ShapeItem struct {
	Kind ShapeKind
	Size Size
}

// Hash implements memo.Hashable.
func (s ShapeItem) Hash(h *memo.Hasher) {
	h.Tag("shape")
	h.Int(int(s.Kind))
	h.Float64(s.Size.W)
	h.Float64(s.Size.H)
}

func (s ShapeItem) dump(w io.Writer, pos Point, depth int) {
	name := "line"
	if s.Kind == ShapeRect {
		name = "rect"
	}
	fmt.Fprintf(w, "%s%s %.2f,%.2f %.2fx%.2f\n", indent(depth), name, pos.X, pos.Y, s.Size.W, s.Size.H)
}

// GroupItem nests a frame.
type GroupItem struct {
	Frame *Frame
}

// Hash implements memo.Hashable.
func (g GroupItem) Hash(h *memo.Hasher) {
	h.Tag("group")
	h.Fingerprint(g.Frame.Fingerprint())
}

func (g GroupItem) dump(w io.Writer, pos Point, depth int) {
	fmt.Fprintf(w, "%sgroup %.2f,%.2f\n", indent(depth), pos.X, pos.Y)
	g.Frame.dump(w, depth+1)
}

// Positioned places an item inside a frame.
type Positioned struct {
	Pos  Point
	Item FrameItem
}

// Frame is the immutable layout output for one region or page.
type Frame struct {
	Size  Size
	Items []Positioned
	fp    memo.Lazy
}

// NewFrame creates a frame. The frame takes ownership of items.
func NewFrame(size Size, items []Positioned) *Frame {
	return &Frame{Size: size, Items: items}
}

// Fingerprint implements memo.Fingerprinter.
func (f *Frame) Fingerprint() memo.Fingerprint {
	return f.fp.Get(func() memo.Fingerprint {
		h := memo.NewHasher()
		h.Tag("frame")
		h.Float64(f.Size.W)
		h.Float64(f.Size.H)
		h.Uint64(uint64(len(f.Items)))
		for _, it := range f.Items {
			h.Float64(it.Pos.X)
			h.Float64(it.Pos.Y)
			it.Item.Hash(h)
		}
		return h.Sum()
	})
}

// Text returns the text of every text item in drawing order. Items on a new
// baseline start a new line and items separated by a gap are separated by a
// space. Scripts that continue a run directly stay on its line.
func (f *Frame) Text() string {
	var (
		b      strings.Builder
		cursor textCursor
	)
	f.collect(&b, Point{}, &cursor)
	return strings.TrimSpace(b.String())
}

type textCursor struct {
	y, end float64
}

const textEpsilon = 1e-6

func (f *Frame) collect(b *strings.Builder, origin Point, c *textCursor) {
	for _, it := range f.Items {
		pos := Point{X: origin.X + it.Pos.X, Y: origin.Y + it.Pos.Y}
		switch item := it.Item.(type) {
		case TextItem:
			contiguous := math.Abs(pos.X-c.end) < textEpsilon
			switch {
			case b.Len() == 0:
			case pos.Y != c.y && !contiguous:
				b.WriteByte('\n')
			case !contiguous:
				b.WriteByte(' ')
			}
			b.WriteString(item.Text)
			c.y = pos.Y
			c.end = pos.X + item.Width
		case GroupItem:
			item.Frame.collect(b, pos, c)
		}
	}
}

// Dump writes a stable, human-readable rendering of the frame tree.
func (f *Frame) Dump(w io.Writer) {
	f.dump(w, 0)
}

// String returns the Dump output.
func (f *Frame) String() string {
	var b strings.Builder
	f.Dump(&b)
	return b.String()
}

func (f *Frame) dump(w io.Writer, depth int) {
	fmt.Fprintf(w, "%sframe %.2fx%.2f\n", indent(depth), f.Size.W, f.Size.H)
	for _, it := range f.Items {
		it.Item.dump(w, it.Pos, depth+1)
	}
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
