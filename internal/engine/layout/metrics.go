package layout

import (
	"go.trai.ch/quill/internal/core/domain"
	"golang.org/x/text/width"
)

// Metrics measures text.
type Metrics interface {
	// Advance returns the width of s set in font.
	Advance(s string, font domain.Font) float64
	// SpaceWidth returns the width of an inter-word space in font.
	SpaceWidth(font domain.Font) float64
}

// FixedMetrics approximates a proportional font with fixed advances: half an
// em per character, a full em for East Asian wide characters and a quarter em
// per space. Bold text is five percent wider.
type FixedMetrics struct{}

// Advance implements Metrics.
func (FixedMetrics) Advance(s string, font domain.Font) float64 {
	var ems float64
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			ems++
		default:
			ems += 0.5
		}
	}
	return ems * font.Size * boldFactor(font)
}

// SpaceWidth implements Metrics.
func (FixedMetrics) SpaceWidth(font domain.Font) float64 {
	return 0.25 * font.Size * boldFactor(font)
}

func boldFactor(font domain.Font) float64 {
	if font.Bold {
		return 1.05
	}
	return 1
}
