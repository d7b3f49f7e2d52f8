// Package config provides the configuration loader for quill.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Filename is the name of the configuration file looked up in a directory.
const Filename = "quill.yaml"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Filename string
	Logger   ports.Logger
}

// NewLoader creates a loader reading quill.yaml.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{Filename: Filename, Logger: log}
}

// Load reads the configuration from dir. A missing file yields the defaults.
func (l *Loader) Load(dir string) (domain.Config, error) {
	path := filepath.Join(dir, l.Filename)
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if errors.Is(err, fs.ErrNotExist) {
		l.Logger.Info("no " + l.Filename + " found, using defaults")
		return domain.DefaultConfig(), nil
	}
	if err != nil {
		return domain.Config{}, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return domain.Config{}, zerr.With(err, "path", path)
	}
	return cfg, nil
}

// Parse decodes a quill.yaml document over the defaults and validates the
// result. Unknown keys are rejected.
func Parse(data []byte) (domain.Config, error) {
	var file Quillfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return domain.Config{}, zerr.Wrap(err, "failed to parse config file")
	}

	cfg := file.apply(domain.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func (f *Quillfile) apply(cfg domain.Config) domain.Config {
	if p := f.Page; p != nil {
		set(&cfg.Page.Width, p.Width)
		set(&cfg.Page.Height, p.Height)
		set(&cfg.Page.Margin, p.Margin)
	}
	if t := f.Text; t != nil {
		set(&cfg.Text.Size, t.Size)
		set(&cfg.Text.Leading, t.Leading)
	}
	set(&cfg.Footer, f.Footer)
	set(&cfg.Numbering, f.Numbering)
	if c := f.Cache; c != nil {
		set(&cfg.Cache.MaxAge, c.MaxAge)
		set(&cfg.Cache.Variants, c.Variants)
		set(&cfg.Cache.CrossCheck, c.CrossCheck)
	}
	if s := f.Stabilization; s != nil {
		set(&cfg.Stabilization.MaxIterations, s.MaxIterations)
	}
	set(&cfg.Parallelism, f.Parallelism)
	set(&cfg.Trace, f.Trace)
	return cfg
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
