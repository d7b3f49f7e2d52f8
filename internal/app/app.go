// Package app implements the application layer for quill.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/quill/internal/adapters/watcher" //nolint:depguard // Watch mode debounces watcher events
	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/ports"
	"go.trai.ch/quill/internal/engine/compiler"
	"go.trai.ch/zerr"
)

// TraceSwitch turns span logging on or off.
type TraceSwitch interface {
	SetEnabled(enable bool)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	store        ports.CompileInfoStore
	world        ports.InvalidatingWorld
	tracer       ports.Tracer
	watcher      ports.Watcher
	exporters    map[string]ports.Exporter

	traceSwitch TraceSwitch
	stateDir    string
	stdout      io.Writer
	debounce    time.Duration
	now         func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	store ports.CompileInfoStore,
	world ports.InvalidatingWorld,
	tracer ports.Tracer,
	exporters map[string]ports.Exporter,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		store:        store,
		world:        world,
		tracer:       tracer,
		exporters:    exporters,
		stdout:       os.Stdout,
		debounce:     watcher.DefaultDebounceWindow,
		now:          time.Now,
	}
}

// WithWatcher sets the file watcher used by Watch.
func (a *App) WithWatcher(w ports.Watcher) *App {
	a.watcher = w
	return a
}

// WithTraceSwitch sets the switch toggled by the trace setting.
func (a *App) WithTraceSwitch(s TraceSwitch) *App {
	a.traceSwitch = s
	return a
}

// WithStateDir sets the directory removed by Clean.
func (a *App) WithStateDir(dir string) *App {
	a.stateDir = dir
	return a
}

// WithStdout sets where documents go when no output file is given.
func (a *App) WithStdout(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithDebounce sets the quiet window before watch mode recompiles.
func (a *App) WithDebounce(d time.Duration) *App {
	a.debounce = d
	return a
}

// WithClock replaces the clock used for compile info timestamps.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// CompileOptions configuration for the Compile and Watch methods.
type CompileOptions struct {
	// Output is the file the document is written to; empty or "-" means stdout.
	Output string
	// Format names the exporter.
	Format string
	// NoCache ignores persisted compile info and, in watch mode, discards
	// memoized work before every pass.
	NoCache bool
}

// session is the state shared by the passes of one command.
type session struct {
	cfg      domain.Config
	state    *compiler.State
	compiler *compiler.Compiler
	exporter ports.Exporter
}

func (a *App) open(main string, opts CompileOptions) (*session, error) {
	cfg, err := a.configLoader.Load(".")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	format := opts.Format
	if format == "" {
		format = "text"
	}
	exporter, ok := a.exporters[format]
	if !ok {
		return nil, zerr.With(zerr.New("unknown output format"), "format", format)
	}
	if a.traceSwitch != nil {
		a.traceSwitch.SetEnabled(cfg.Trace)
	}
	a.logger.Info(fmt.Sprintf("compiling %s", main))
	return &session{
		cfg:      cfg,
		state:    compiler.NewState(cfg.Cache),
		compiler: compiler.New(cfg, a.world, a.tracer),
		exporter: exporter,
	}, nil
}

// Compile compiles main once and writes the result. It returns an error
// wrapping domain.ErrCompileFailed when the document has errors; the
// document is written regardless.
func (a *App) Compile(ctx context.Context, main string, opts CompileOptions) error {
	defer func() {
		_ = a.tracer.Shutdown(context.WithoutCancel(ctx))
	}()

	s, err := a.open(main, opts)
	if err != nil {
		return err
	}
	return a.pass(ctx, s, main, opts)
}

// pass runs one compilation, reports it, and writes the output.
func (a *App) pass(ctx context.Context, s *session, main string, opts CompileOptions) error {
	id := uuid.NewString()
	ctx, span := a.tracer.Start(ctx, "pass")
	defer span.End()
	span.SetAttribute("pass", id)

	doc, err := s.compiler.Compile(ctx, s.state, main)
	if err != nil {
		span.RecordError(err)
		return zerr.With(err, "pass", id)
	}

	for _, d := range doc.Diagnostics {
		a.logger.Warn(d.String())
	}

	changed, err := a.recordPages(main, doc, opts.NoCache)
	if err != nil {
		return zerr.With(err, "pass", id)
	}
	a.logger.Info(fmt.Sprintf(
		"compiled %s: %d pages (%d changed), %d iterations, cache %d hits / %d misses / %d evictions [pass %s]",
		main, len(doc.Pages), len(changed), doc.Iterations,
		doc.Stats.Hits, doc.Stats.Misses, doc.Stats.Evictions, id,
	))

	if err := a.write(s.exporter, doc, opts.Output); err != nil {
		return zerr.With(err, "pass", id)
	}

	if domain.HasErrors(doc.Diagnostics) {
		return zerr.With(zerr.Wrap(domain.ErrCompileFailed, "document has errors"), "pass", id)
	}
	return nil
}

// recordPages stores the page fingerprints of doc and returns the pages that
// differ from the previous run.
func (a *App) recordPages(main string, doc *domain.Document, noCache bool) ([]int, error) {
	var prev *domain.CompileInfo
	if !noCache {
		var err error
		if prev, err = a.store.Get(main); err != nil {
			return nil, zerr.Wrap(err, "failed to read compile info")
		}
	}
	info := domain.NewCompileInfo(main, doc, a.now())
	if err := a.store.Put(info); err != nil {
		return nil, zerr.Wrap(err, "failed to store compile info")
	}
	return domain.ChangedPages(prev, info), nil
}

func (a *App) write(exporter ports.Exporter, doc *domain.Document, output string) (err error) {
	if output == "" || output == "-" {
		return exporter.Export(a.stdout, doc)
	}
	f, err := os.Create(output) //nolint:gosec // path is provided by user
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create output file"), "path", output)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, "failed to close output file"), "path", output)
		}
	}()
	return exporter.Export(f, doc)
}

// Watch compiles main and recompiles whenever a file it read changes, until
// ctx is done. Document errors are reported and do not stop watching.
func (a *App) Watch(ctx context.Context, main string, opts CompileOptions) error {
	defer func() {
		_ = a.tracer.Shutdown(context.WithoutCancel(ctx))
	}()
	if a.watcher == nil {
		return zerr.New("watch mode is not available")
	}

	s, err := a.open(main, opts)
	if err != nil {
		return err
	}
	if err := a.watchPass(ctx, s, main, opts); err != nil {
		return err
	}

	if err := a.watcher.Start(ctx, "."); err != nil {
		return zerr.Wrap(err, "failed to start watcher")
	}
	defer func() {
		_ = a.watcher.Stop()
	}()

	batches := make(chan []string)
	done := make(chan struct{})
	defer close(done)
	deb := watcher.NewDebouncer(a.debounce, func(paths []string) {
		select {
		case batches <- paths:
		case <-done:
		}
	})
	defer deb.Stop()

	go func() {
		for ev := range a.watcher.Events() {
			deb.Add(ev.Path)
		}
	}()

	a.logger.Info("watching for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-batches:
			changed := a.world.Invalidate(paths)
			if len(changed) == 0 {
				continue
			}
			if opts.NoCache {
				s.state.Reset()
			}
			if err := a.watchPass(ctx, s, main, opts); err != nil {
				return err
			}
		}
	}
}

// watchPass runs a pass and keeps going on document errors.
func (a *App) watchPass(ctx context.Context, s *session, main string, opts CompileOptions) error {
	err := a.pass(ctx, s, main, opts)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return nil
	case errors.Is(err, domain.ErrCompileFailed), errors.Is(err, domain.ErrFileNotFound):
		a.logger.Error(err)
		return nil
	default:
		return err
	}
}

// Clean removes persisted compile info.
func (a *App) Clean(_ context.Context) error {
	if a.stateDir == "" {
		return nil
	}
	a.logger.Info("removing compile info...")
	if err := os.RemoveAll(a.stateDir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to remove compile info"), "dir", a.stateDir)
	}
	a.logger.Info("removed compile info")
	return nil
}
