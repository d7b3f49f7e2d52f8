package app_test

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quill/internal/adapters/cas"
	"go.trai.ch/quill/internal/adapters/export"
	"go.trai.ch/quill/internal/adapters/fs"
	"go.trai.ch/quill/internal/adapters/telemetry"
	"go.trai.ch/quill/internal/app"
	"go.trai.ch/quill/internal/core/domain"
	"go.trai.ch/quill/internal/core/ports"
	"go.trai.ch/quill/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// lockedBuffer is written by the watch loop and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type logRecorder struct {
	mu       sync.Mutex
	infos    []string
	warns    []string
	errs     []error
	compiled chan string
}

func (r *logRecorder) info(msg string) {
	r.mu.Lock()
	r.infos = append(r.infos, msg)
	r.mu.Unlock()
	if strings.HasPrefix(msg, "compiled ") {
		select {
		case r.compiled <- msg:
		default:
		}
	}
}

func (r *logRecorder) warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warns...)
}

type fixture struct {
	root   string
	loader *mocks.MockConfigLoader
	log    *logRecorder
	out    *lockedBuffer
	app    *app.App
}

func testConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Page = domain.PageConfig{Width: 220, Height: 300, Margin: 10}
	cfg.Text = domain.TextConfig{Size: 10, Leading: 0.5}
	cfg.Footer = false
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	root := t.TempDir()

	world, err := fs.NewWorld(root)
	require.NoError(t, err)

	rec := &logRecorder{compiled: make(chan string, 8)}
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).Do(rec.info).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		rec.mu.Lock()
		rec.warns = append(rec.warns, msg)
		rec.mu.Unlock()
	}).AnyTimes()
	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		rec.mu.Lock()
		rec.errs = append(rec.errs, err)
		rec.mu.Unlock()
	}).AnyTimes()

	loader := mocks.NewMockConfigLoader(ctrl)
	out := &lockedBuffer{}
	a := app.New(loader, log, cas.NewStore(filepath.Join(root, ".quill", "state")), world,
		telemetry.NoOpTracer{}, export.DefaultSet()).
		WithStdout(out).
		WithStateDir(filepath.Join(root, ".quill")).
		WithDebounce(10 * time.Millisecond)

	return &fixture{root: root, loader: loader, log: rec, out: out, app: a}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.root, name), []byte(content), 0o600))
}

func TestApp_Compile(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testConfig(), nil)
	f.write(t, "main.qd", "= Intro <intro>\nHello *world*. See @intro.")

	err := f.app.Compile(context.Background(), "main.qd", app.CompileOptions{Format: export.FormatText})
	require.NoError(t, err)
	assert.Equal(t, "--- page 1 of 1 ---\n1 Intro\nHello world. See Section 1.\n", f.out.String())
	assert.Empty(t, f.log.warnings())
}

func TestApp_Compile_ReportsChangedPages(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testConfig(), nil).Times(3)
	f.write(t, "main.qd", "One.\n\n#pagebreak()\n\nTwo.")

	opts := app.CompileOptions{Format: export.FormatText}
	require.NoError(t, f.app.Compile(context.Background(), "main.qd", opts))
	assert.Contains(t, <-f.log.compiled, "2 pages (2 changed)")

	require.NoError(t, f.app.Compile(context.Background(), "main.qd", opts))
	assert.Contains(t, <-f.log.compiled, "2 pages (0 changed)")

	f.write(t, "main.qd", "One.\n\n#pagebreak()\n\nTwo, edited.")
	require.NoError(t, f.app.Compile(context.Background(), "main.qd", opts))
	assert.Contains(t, <-f.log.compiled, "2 pages (1 changed)")
}

func TestApp_Compile_DocumentErrors(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testConfig(), nil)
	f.write(t, "main.qd", "Hello #nope world.")

	err := f.app.Compile(context.Background(), "main.qd", app.CompileOptions{Format: export.FormatText})
	require.ErrorIs(t, err, domain.ErrCompileFailed)

	require.Len(t, f.log.warnings(), 1)
	assert.Contains(t, f.log.warnings()[0], "unknown variable: nope")
	assert.Contains(t, f.out.String(), "Hello world.")
}

func TestApp_Compile_WritesOutputFile(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testConfig(), nil)
	f.write(t, "main.qd", "Body.")
	out := filepath.Join(f.root, "out.txt")

	err := f.app.Compile(context.Background(), "main.qd", app.CompileOptions{Output: out, Format: export.FormatFrames})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "--- page 1 of 1 ---\nframe 220.00x300.00\n"))
	assert.Empty(t, f.out.String())
}

func TestApp_Compile_SetupErrors(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(".").Return(domain.Config{}, domain.ErrInvalidConfig)
		err := f.app.Compile(context.Background(), "main.qd", app.CompileOptions{})
		require.ErrorIs(t, err, domain.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})

	t.Run("format", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(".").Return(testConfig(), nil)
		err := f.app.Compile(context.Background(), "main.qd", app.CompileOptions{Format: "pdf"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})

	t.Run("missing main file", func(t *testing.T) {
		f := newFixture(t)
		f.loader.EXPECT().Load(".").Return(testConfig(), nil)
		err := f.app.Compile(context.Background(), "absent.qd", app.CompileOptions{})
		require.ErrorIs(t, err, domain.ErrFileNotFound)
	})
}

func TestApp_Compile_EnablesTrace(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	cfg.Trace = true
	f.loader.EXPECT().Load(".").Return(cfg, nil)
	f.write(t, "main.qd", "Body.")

	sw := &traceSwitch{}
	f.app.WithTraceSwitch(sw)
	require.NoError(t, f.app.Compile(context.Background(), "main.qd", app.CompileOptions{}))
	assert.True(t, sw.enabled)
}

type traceSwitch struct{ enabled bool }

func (s *traceSwitch) SetEnabled(enable bool) { s.enabled = enable }

func events(ch <-chan ports.WatchEvent) iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for ev := range ch {
			if !yield(ev) {
				return
			}
		}
	}
}

func TestApp_Watch_RecompilesOnChange(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testConfig(), nil)
	f.write(t, "main.qd", "Hello #read(\"name.txt\").")
	f.write(t, "name.txt", "world")

	ch := make(chan ports.WatchEvent, 4)
	w := mocks.NewMockWatcher(gomock.NewController(t))
	w.EXPECT().Start(gomock.Any(), ".").Return(nil)
	w.EXPECT().Events().Return(events(ch))
	w.EXPECT().Stop().DoAndReturn(func() error {
		close(ch)
		return nil
	})
	f.app.WithWatcher(w)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- f.app.Watch(ctx, "main.qd", app.CompileOptions{})
	}()

	waitCompiled(t, f.log)
	f.write(t, "name.txt", "quill, again")
	ch <- ports.WatchEvent{Path: "name.txt", Operation: ports.OpWrite}

	msg := waitCompiled(t, f.log)
	assert.Contains(t, msg, "1 changed")
	assert.Contains(t, f.out.String(), "Hello quill, again.")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestApp_Watch_WithoutWatcher(t *testing.T) {
	f := newFixture(t)
	err := f.app.Watch(context.Background(), "main.qd", app.CompileOptions{})
	require.Error(t, err)
}

func TestApp_Watch_StartError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testConfig(), nil)
	f.write(t, "main.qd", "Body.")

	w := mocks.NewMockWatcher(gomock.NewController(t))
	w.EXPECT().Start(gomock.Any(), ".").Return(errors.New("too many files"))
	f.app.WithWatcher(w)

	err := f.app.Watch(context.Background(), "main.qd", app.CompileOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start watcher")
}

func waitCompiled(t *testing.T, rec *logRecorder) string {
	t.Helper()
	select {
	case msg := <-rec.compiled:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no compilation reported")
		return ""
	}
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(testConfig(), nil)
	f.write(t, "main.qd", "Body.")
	require.NoError(t, f.app.Compile(context.Background(), "main.qd", app.CompileOptions{}))

	_, err := os.Stat(filepath.Join(f.root, ".quill", "state"))
	require.NoError(t, err)

	require.NoError(t, f.app.Clean(context.Background()))
	_, err = os.Stat(filepath.Join(f.root, ".quill"))
	assert.True(t, os.IsNotExist(err))
}
