package domain

import (
	"time"

	"go.trai.ch/quill/internal/core/memo"
)

// Document is the result of one compilation.
type Document struct {
	Pages       []*Frame
	Diagnostics []Diagnostic
	// Iterations is the number of layout passes run before the result was
	// accepted.
	Iterations int
	// Converged is false when the iteration limit was reached.
	Converged bool
	// Stats counts the cache activity of this compilation only.
	Stats memo.Stats
}

// PageFingerprints returns the fingerprint of every page in order.
func (d *Document) PageFingerprints() []memo.Fingerprint {
	fps := make([]memo.Fingerprint, len(d.Pages))
	for i, p := range d.Pages {
		fps[i] = p.Fingerprint()
	}
	return fps
}

// CompileInfo is persisted between runs to report which pages changed.
type CompileInfo struct {
	Document  string    `json:"document,omitzero"`
	Pages     []string  `json:"pages,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewCompileInfo records the page fingerprints of doc for the source at path.
func NewCompileInfo(path string, doc *Document, at time.Time) CompileInfo {
	fps := doc.PageFingerprints()
	pages := make([]string, len(fps))
	for i, fp := range fps {
		pages[i] = fp.String()
	}
	return CompileInfo{Document: path, Pages: pages, Timestamp: at}
}

// ChangedPages returns the 1-based numbers of pages in next that differ from
// prev, including pages that prev did not have.
func ChangedPages(prev *CompileInfo, next CompileInfo) []int {
	var changed []int
	for i, fp := range next.Pages {
		if prev == nil || i >= len(prev.Pages) || prev.Pages[i] != fp {
			changed = append(changed, i+1)
		}
	}
	return changed
}
