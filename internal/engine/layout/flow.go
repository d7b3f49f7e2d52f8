package layout

import (
	"strconv"
	"strings"

	"go.trai.ch/quill/internal/core/domain"
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockHeading
	blockBreak
)

// flowItem is a top-level block in document order.
type flowItem struct {
	kind   blockKind
	body   domain.Content
	level  int
	label  string
	number string
	title  string
	span   domain.Span
}

// flattener turns a content tree into flow items. Inline content found
// between blocks is gathered into implicit paragraphs.
type flattener struct {
	numbering bool
	counters  [6]int
	items     []flowItem
	pending   []domain.Content
}

func flatten(c domain.Content, numbering bool) []flowItem {
	f := &flattener{numbering: numbering}
	if c != nil {
		f.walk(c)
	}
	f.flush()
	return f.items
}

func (f *flattener) walk(c domain.Content) {
	switch n := c.(type) {
	case *domain.Sequence:
		for _, child := range n.Children {
			f.walk(child)
		}
	case *domain.Paragraph:
		f.flush()
		f.items = append(f.items, flowItem{kind: blockParagraph, body: n.Body, span: n.Span})
	case *domain.Heading:
		f.flush()
		item := flowItem{
			kind:  blockHeading,
			body:  n.Body,
			level: n.Level,
			title: strings.TrimSpace(domain.PlainText(n.Body)),
			span:  n.Span,
		}
		if !n.Label.IsZero() {
			item.label = n.Label.String()
		}
		if f.numbering {
			item.number = f.next(n.Level)
		}
		f.items = append(f.items, item)
	case *domain.PageBreak:
		f.flush()
		f.items = append(f.items, flowItem{kind: blockBreak})
	default:
		f.pending = append(f.pending, c)
	}
}

func (f *flattener) flush() {
	pending := f.pending
	f.pending = nil
	for _, c := range pending {
		if _, ok := c.(*domain.Space); !ok {
			f.items = append(f.items, flowItem{kind: blockParagraph, body: domain.NewSequence(pending...)})
			return
		}
	}
}

// next advances the counter of level and returns the hierarchical number,
// such as "2.1".
func (f *flattener) next(level int) string {
	level = min(max(level, 1), len(f.counters))
	f.counters[level-1]++
	for i := level; i < len(f.counters); i++ {
		f.counters[i] = 0
	}
	parts := make([]string, level)
	for i := range level {
		parts[i] = strconv.Itoa(f.counters[i])
	}
	return strings.Join(parts, ".")
}
