// Package layout breaks evaluated content into lines and pages.
//
// Blocks are laid out independently and in parallel, each memoized on its
// content and the styles that affect it. Pagination is sequential and records
// heading positions and the page count into an introspection registry. Page
// footers read the page count from the previous iteration's introspector.
package layout

import (
	"context"
	"fmt"
	"runtime"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/memo"
	"go.trai.ch/quill/internal/engine/introspect"
	"golang.org/x/sync/errgroup"
)

// Block spacing in em.
const (
	paragraphSpacing = 1.2
	headingAbove     = 1.4
	headingBelow     = 0.6
)

// Output is the result of laying out a document.
type Output struct {
	Pages       []*domain.Frame
	Diagnostics []domain.Diagnostic
}

// Option configures a Layouter.
type Option func(*Layouter)

// WithMetrics replaces the text metrics. Cached layouts are keyed by the
// fingerprint of m, so m must be plain data or implement memo.Fingerprinter.
func WithMetrics(m Metrics) Option {
	return func(l *Layouter) {
		l.metrics = m
	}
}

// Layouter lays out documents against one introspector.
type Layouter struct {
	cache     *memo.Cache
	cfg       domain.Config
	intro     *introspect.Introspector
	metrics   Metrics
	metricsFP memo.Fingerprint
}

// New returns a layouter that memoizes into cache.
func New(cache *memo.Cache, cfg domain.Config, intro *introspect.Introspector, opts ...Option) *Layouter {
	l := &Layouter{
		cache:   cache,
		cfg:     cfg,
		intro:   intro,
		metrics: FixedMetrics{},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.metricsFP = memo.Of(l.metrics)
	return l
}

func (l *Layouter) textWidth() float64 {
	return l.cfg.Page.Width - 2*l.cfg.Page.Margin
}

// Layout lays out content and records the placed headings and the page
// count into reg.
func (l *Layouter) Layout(ctx context.Context, content domain.Content, reg *introspect.Registry) (Output, error) {
	items := flatten(content, l.cfg.Numbering)

	blocks := make([]blockLayout, len(items))
	g, gctx := errgroup.WithContext(ctx)
	limit := l.cfg.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for i, item := range items {
		if item.kind == blockBreak {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := l.block(gctx, item)
			if err != nil {
				return err
			}
			blocks[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Output{}, err
	}

	var out Output
	bodies := l.paginate(items, blocks, reg)
	reg.SetPageCount(len(bodies))
	for i, b := range blocks {
		for _, d := range b.Diagnostics {
			if d.Span.Line == 0 {
				d.Span = items[i].span
			}
			out.Diagnostics = append(out.Diagnostics, d)
		}
	}
	for i, body := range bodies {
		page, err := l.page(ctx, i+1, body)
		if err != nil {
			return Output{}, err
		}
		out.Pages = append(out.Pages, page)
	}
	return out, nil
}

// blockLayout is the memoized layout of one block.
type blockLayout struct {
	Lines       []*domain.Frame
	Above       float64
	Below       float64
	Diagnostics []domain.Diagnostic
}

type blockStyle struct {
	Width   float64
	Size    float64
	Leading float64
}

func (l *Layouter) block(ctx context.Context, item flowItem) (blockLayout, error) {
	st := blockStyle{Width: l.textWidth(), Size: l.cfg.Text.Size, Leading: l.cfg.Text.Leading}
	key := memo.NewKey("layout.block", int(item.kind), item.level, item.number, item.body.Fingerprint(), st, l.metricsFP)
	return memo.Memoize(ctx, l.cache, key, memo.Inputs{}, func(context.Context) (blockLayout, error) {
		return l.layoutBlock(item, st), nil
	})
}

func (l *Layouter) layoutBlock(item flowItem, st blockStyle) blockLayout {
	base := style{font: domain.Font{Size: st.Size}}
	body := item.body
	out := blockLayout{Below: paragraphSpacing * st.Size}
	if item.kind == blockHeading {
		base.font = domain.Font{Size: st.Size * headingScale(item.level), Bold: true}
		if item.number != "" {
			body = domain.NewSequence(domain.NewText(item.number), domain.NewSpace(), body)
		}
		out.Above = headingAbove * st.Size
		out.Below = headingBelow * st.Size
	}

	tokens := tokenize(body, base, l.metrics)
	lines := breakLines(tokens, st.Width, func(excess float64) {
		out.Diagnostics = append(out.Diagnostics,
			domain.Warnf(domain.Span{}, "text overflows the line by %.2fpt", excess))
	})
	for _, line := range lines {
		out.Lines = append(out.Lines, renderLine(line, st.Width, base.font.Size))
	}
	return out
}

func headingScale(level int) float64 {
	switch level {
	case 1:
		return 1.4
	case 2:
		return 1.2
	default:
		return 1.1
	}
}

// paginate places lines top to bottom, starting a new page when a line does
// not fit or on an explicit page break. There is always at least one page.
func (l *Layouter) paginate(items []flowItem, blocks []blockLayout, reg *introspect.Registry) []*domain.Frame {
	var (
		pageSize = domain.Size{W: l.cfg.Page.Width, H: l.cfg.Page.Height}
		margin   = l.cfg.Page.Margin
		bottom   = l.cfg.Page.Height - margin
		gap      = l.cfg.Text.Leading * l.cfg.Text.Size

		bodies  []*domain.Frame
		current []domain.Positioned
		y       = margin
	)
	newPage := func() {
		bodies = append(bodies, domain.NewFrame(pageSize, current))
		current = nil
		y = margin
	}

	for i, item := range items {
		if item.kind == blockBreak {
			if len(current) > 0 {
				newPage()
			}
			continue
		}
		b := blocks[i]
		if len(current) > 0 {
			y += b.Above
		}
		for j, line := range b.Lines {
			if len(current) > 0 && y+line.Size.H > bottom {
				newPage()
			}
			if j == 0 && item.kind == blockHeading {
				l.record(reg, item, len(bodies)+1, y)
			}
			current = append(current, domain.Positioned{
				Pos:  domain.Point{X: margin, Y: y},
				Item: domain.GroupItem{Frame: line},
			})
			y += line.Size.H
			if j < len(b.Lines)-1 {
				y += gap
			}
		}
		if len(b.Lines) == 0 && item.kind == blockHeading {
			l.record(reg, item, len(bodies)+1, y)
		}
		y += b.Below
	}
	if len(current) > 0 || len(bodies) == 0 {
		newPage()
	}
	return bodies
}

func (l *Layouter) record(reg *introspect.Registry, item flowItem, page int, y float64) {
	reg.AddHeading(introspect.HeadingInfo{
		Label:  item.label,
		Number: item.number,
		Title:  item.title,
		Level:  item.level,
		Page:   page,
		Y:      y,
	})
}

type pageStyle struct {
	Footer bool
	Margin float64
	Size   float64
}

// page adds the footer to a page body.
func (l *Layouter) page(ctx context.Context, number int, body *domain.Frame) (*domain.Frame, error) {
	st := pageStyle{Footer: l.cfg.Footer, Margin: l.cfg.Page.Margin, Size: l.cfg.Text.Size}
	key := memo.NewKey("layout.page", number, body.Fingerprint(), st, l.metricsFP)
	env := memo.Inputs{introspect.InputName: l.intro}
	return memo.Memoize(ctx, l.cache, key, env, func(ctx context.Context) (*domain.Frame, error) {
		if !st.Footer {
			return body, nil
		}
		items := make([]domain.Positioned, 0, len(body.Items)+1)
		items = append(items, body.Items...)

		font := domain.Font{Size: st.Size * 0.8}
		text := fmt.Sprintf("Page %d of %d", number, l.intro.PageCount(ctx))
		w := l.metrics.Advance(text, font)
		items = append(items, domain.Positioned{
			Pos:  domain.Point{X: (body.Size.W - w) / 2, Y: body.Size.H - st.Margin/2},
			Item: domain.TextItem{Text: text, Font: font, Width: w},
		})
		return domain.NewFrame(body.Size, items), nil
	})
}
