package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore_FileNotExist(t *testing.T) {
	ls, err := OpenStore(filepath.Join(t.TempDir(), DefaultStoreFile))
	require.NoError(t, err)
	assert.Empty(t, ls.Token)
	assert.Empty(t, ls.List())
}

func TestOpenStore_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0600))

	_, err := OpenStore(path)
	assert.Error(t, err)
}

func TestLocalStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultStoreFile)
	ls, err := OpenStore(path)
	require.NoError(t, err)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ls.SetToken("tok")
	ls.Add(Receipt{RequestID: "abc123", CheckSum: "old", CreatedAt: created})
	ls.Add(Receipt{RequestID: "def456", CheckSum: "other", CreatedAt: created})
	ls.Add(Receipt{RequestID: "abc123", CheckSum: "new", CreatedAt: created})
	require.NoError(t, ls.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reloaded, err := OpenStore(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", reloaded.Token)
	require.Len(t, reloaded.List(), 2)

	r := reloaded.Get("abc123")
	require.NotNil(t, r)
	assert.Equal(t, "new", r.CheckSum)
	assert.True(t, created.Equal(r.CreatedAt))

	assert.Nil(t, reloaded.Get("missing"))
}
