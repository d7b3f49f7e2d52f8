// Package export writes compiled documents as text.
package export

import (
	"bufio"
	"fmt"
	"io"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/ports"
	"go.trai.ch/zerr"
)

// Output format names.
const (
	FormatText   = "text"
	FormatFrames = "frames"
)

// Set maps format names to exporters.
type Set map[string]ports.Exporter

// DefaultSet returns every built-in exporter.
func DefaultSet() Set {
	return Set{
		FormatText:   TextExporter{},
		FormatFrames: FrameExporter{},
	}
}

// Lookup returns the exporter for format.
func (s Set) Lookup(format string) (ports.Exporter, error) {
	e, ok := s[format]
	if !ok {
		return nil, zerr.With(zerr.New("unknown output format"), "format", format)
	}
	return e, nil
}

// TextExporter writes the text of every page, separated by page headers.
type TextExporter struct{}

// Export implements ports.Exporter.
func (TextExporter) Export(w io.Writer, doc *domain.Document) error {
	return writePages(w, doc, func(bw *bufio.Writer, page *domain.Frame) {
		if text := page.Text(); text != "" {
			bw.WriteString(text)
			bw.WriteByte('\n')
		}
	})
}

// FrameExporter writes the full frame tree of every page.
type FrameExporter struct{}

// Export implements ports.Exporter.
func (FrameExporter) Export(w io.Writer, doc *domain.Document) error {
	return writePages(w, doc, func(bw *bufio.Writer, page *domain.Frame) {
		page.Dump(bw)
	})
}

func writePages(w io.Writer, doc *domain.Document, body func(*bufio.Writer, *domain.Frame)) error {
	bw := bufio.NewWriter(w)
	for i, page := range doc.Pages {
		fmt.Fprintf(bw, "--- page %d of %d ---\n", i+1, len(doc.Pages))
		body(bw, page)
	}
	if err := bw.Flush(); err != nil {
		return zerr.Wrap(err, "failed to write document")
	}
	return nil
}
