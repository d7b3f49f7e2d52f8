package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quill/internal/adapters/watcher"
)

type collector struct {
	mu    sync.Mutex
	calls [][]string
}

func (c *collector) add(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, paths)
}

func (c *collector) snapshot() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.calls...)
}

func TestDebouncer_CoalescesPaths(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c collector
		d := watcher.NewDebouncer(100*time.Millisecond, c.add)

		d.Add("/doc/b.qd")
		d.Add("/doc/a.qd")
		d.Add("/doc/b.qd")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, [][]string{{"/doc/a.qd", "/doc/b.qd"}}, c.snapshot())
	})
}

func TestDebouncer_AddRestartsWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c collector
		d := watcher.NewDebouncer(100*time.Millisecond, c.add)

		d.Add("/doc/a.qd")
		time.Sleep(60 * time.Millisecond)
		d.Add("/doc/b.qd")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, c.snapshot())

		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		require.Len(t, c.snapshot(), 1)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c collector
		d := watcher.NewDebouncer(100*time.Millisecond, c.add)

		d.Flush()
		assert.Empty(t, c.snapshot())

		d.Add("/doc/a.qd")
		d.Flush()
		assert.Equal(t, [][]string{{"/doc/a.qd"}}, c.snapshot())

		// The cancelled window does not fire again.
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Len(t, c.snapshot(), 1)
	})
}

func TestDebouncer_Stop(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var c collector
		d := watcher.NewDebouncer(100*time.Millisecond, c.add)

		d.Add("/doc/a.qd")
		d.Stop()
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, c.snapshot())
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		d := watcher.NewDebouncer(50*time.Millisecond, nil)
		d.Add("/doc/a.qd")
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		d.Flush()
	})
}
