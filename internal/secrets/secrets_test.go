package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("moonshot", "sk-test-123"))
	got, err := store.Get("moonshot")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", got)
}

func TestGetMissing(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValueEncryptedOnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("moonshot", "sk-very-secret"))

	raw, err := os.ReadFile(filepath.Join(dir, "secrets.dat"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-very-secret")
}

func TestReopenKeepsValues(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("moonshot", "sk-persisted"))

	reopened, err := Open(dir)
	require.NoError(t, err)
	got, err := reopened.Get("moonshot")
	require.NoError(t, err)
	assert.Equal(t, "sk-persisted", got)
}

func TestDelete(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("moonshot", "sk-gone"))

	require.NoError(t, store.Delete("moonshot"))
	_, err = store.Get("moonshot")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete("moonshot"))
}

func TestKeyAdapter(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	key := Key{Store: store, Name: "moonshot"}
	v, err := key.APIKey()
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, store.Set("moonshot", "sk-live"))
	v, err = key.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-live", v)
}
