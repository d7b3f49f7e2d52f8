package export_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quill/internal/adapters/export"
	"go.trai.ch/quill/internal/core/domain"
)

func page(lines ...string) *domain.Frame {
	items := make([]domain.Positioned, len(lines))
	for i, l := range lines {
		items[i] = domain.Positioned{
			Pos:  domain.Point{X: 10, Y: float64(10 * (i + 1))},
			Item: domain.TextItem{Text: l, Font: domain.Font{Size: 10}, Width: 5},
		}
	}
	return domain.NewFrame(domain.Size{W: 100, H: 100}, items)
}

func TestTextExporter(t *testing.T) {
	doc := &domain.Document{Pages: []*domain.Frame{page("Hello", "world"), page()}}

	var buf bytes.Buffer
	require.NoError(t, export.TextExporter{}.Export(&buf, doc))
	assert.Equal(t, "--- page 1 of 2 ---\nHello\nworld\n--- page 2 of 2 ---\n", buf.String())
}

func TestFrameExporter(t *testing.T) {
	doc := &domain.Document{Pages: []*domain.Frame{page("Hi")}}

	var buf bytes.Buffer
	require.NoError(t, export.FrameExporter{}.Export(&buf, doc))
	assert.Equal(t,
		"--- page 1 of 1 ---\nframe 100.00x100.00\n  text 10.00,10.00 size=10.00 \"Hi\"\n",
		buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExport_WriteError(t *testing.T) {
	doc := &domain.Document{Pages: []*domain.Frame{page("x")}}
	err := export.TextExporter{}.Export(failingWriter{}, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestSet_Lookup(t *testing.T) {
	set := export.DefaultSet()

	e, err := set.Lookup(export.FormatText)
	require.NoError(t, err)
	assert.IsType(t, export.TextExporter{}, e)

	_, err = set.Lookup("pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
