package domain

import "go.trai.ch/zerr"

// Config holds every tunable of a compilation.
type Config struct {
	Page          PageConfig
	Text          TextConfig
	Footer        bool
	Numbering     bool
	Cache         CacheConfig
	Stabilization StabilizationConfig
	// Parallelism bounds concurrent block layout; zero means GOMAXPROCS.
	Parallelism int
	Trace       bool
}

// PageConfig describes the page geometry in points.
type PageConfig struct {
	Width  float64
	Height float64
	Margin float64
}

// TextConfig describes the base text style.
type TextConfig struct {
	// Size is the font size in points.
	Size float64
	// Leading is the gap between lines, in em.
	Leading float64
}

// CacheConfig tunes the memoization cache.
type CacheConfig struct {
	// MaxAge is the number of generations an unused entry survives.
	MaxAge uint64
	// Variants bounds the differently-constrained results kept per call.
	Variants int
	// CrossCheck recomputes every cache hit and fails on divergence.
	CrossCheck bool
}

// StabilizationConfig bounds the layout fixed-point iteration.
type StabilizationConfig struct {
	MaxIterations int
}

// DefaultConfig returns an A4 page with 11pt text.
func DefaultConfig() Config {
	return Config{
		Page: PageConfig{
			Width:  595.28,
			Height: 841.89,
			Margin: 56.69,
		},
		Text: TextConfig{
			Size:    11,
			Leading: 0.65,
		},
		Footer:    true,
		Numbering: true,
		Cache: CacheConfig{
			MaxAge:   8,
			Variants: 4,
		},
		Stabilization: StabilizationConfig{
			MaxIterations: 5,
		},
	}
}

// Validate checks that the configuration describes a usable page.
func (c Config) Validate() error {
	switch {
	case c.Page.Width <= 0 || c.Page.Height <= 0:
		return zerr.With(zerr.With(zerr.Wrap(ErrInvalidConfig, "page size must be positive"),
			"width", c.Page.Width), "height", c.Page.Height)
	case c.Page.Margin < 0 || 2*c.Page.Margin >= c.Page.Width || 2*c.Page.Margin >= c.Page.Height:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "margin leaves no room for content"), "margin", c.Page.Margin)
	case c.Text.Size <= 0:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "text size must be positive"), "size", c.Text.Size)
	case c.Text.Leading < 0:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "leading must not be negative"), "leading", c.Text.Leading)
	case c.Stabilization.MaxIterations < 1:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "at least one layout iteration is required"),
			"max_iterations", c.Stabilization.MaxIterations)
	case c.Cache.Variants < 1:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "at least one cache variant is required"), "variants", c.Cache.Variants)
	case c.Parallelism < 0:
		return zerr.With(zerr.Wrap(ErrInvalidConfig, "parallelism must not be negative"), "parallelism", c.Parallelism)
	}
	return nil
}
