package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quill/internal/adapters/cas"
	"go.trai.ch/quill/internal/core/domain"
)

func TestStore_GetMissing(t *testing.T) {
	store := cas.NewStore(filepath.Join(t.TempDir(), "state"))
	got, err := store.Get("main.qd")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PutAndGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	info := domain.CompileInfo{Document: "docs/../main.qd", Pages: []string{"aa", "bb"}, Timestamp: at}

	require.NoError(t, cas.NewStore(dir).Put(info))

	// A fresh store reads what the first one wrote.
	got, err := cas.NewStore(dir).Get("main.qd")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "main.qd", got.Document)
	assert.Equal(t, []string{"aa", "bb"}, got.Pages)
	assert.True(t, at.Equal(got.Timestamp))

	other, err := cas.NewStore(dir).Get("other.qd")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestStore_PutReplaces(t *testing.T) {
	store := cas.NewStore(t.TempDir())
	require.NoError(t, store.Put(domain.CompileInfo{Document: "main.qd", Pages: []string{"a"}}))
	require.NoError(t, store.Put(domain.CompileInfo{Document: "main.qd", Pages: []string{"b", "c"}}))

	got, err := store.Get("main.qd")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got.Pages)
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := cas.NewStore(dir)
	require.NoError(t, store.Put(domain.CompileInfo{Document: "main.qd"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{"), 0o600))

	_, err = store.Get("main.qd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal compile info")
}
