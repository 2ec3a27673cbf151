// ABOUTME: Tests for the durable Store implementations and TokenStore
// ABOUTME: Runs the same contract against file, sqlite, and memory backends

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/sgu-admin/internal/config"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"file":   fileStore,
		"sqlite": sqliteStore,
		"memory": NewMemoryStore(),
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "admin_token")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "admin_token", "abc"))
			v, err := s.Get(ctx, "admin_token")
			require.NoError(t, err)
			assert.Equal(t, "abc", v)

			// Last write wins
			require.NoError(t, s.Set(ctx, "admin_token", "def"))
			v, err = s.Get(ctx, "admin_token")
			require.NoError(t, err)
			assert.Equal(t, "def", v)

			require.NoError(t, s.Delete(ctx, "admin_token"))
			_, err = s.Get(ctx, "admin_token")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, s.Delete(ctx, "admin_token"), ErrNotFound)
		})
	}
}

func TestFileStore_Permissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), TokenKey, "secret"))

	info, err := os.Stat(filepath.Join(dir, TokenKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = s.Set(context.Background(), "../escape", "x")
	assert.Error(t, err)
}

func TestFileStore_ReadsHandWrittenToken(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, TokenKey), []byte("  tok-123\n"), 0600))

	s, err := NewFileStore(dir)
	require.NoError(t, err)

	v, err := s.Get(context.Background(), TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", v)
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), TokenKey, "persisted"))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(context.Background(), TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "persisted", v)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(config.StorageConfig{Driver: config.DriverFile, Path: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(config.StorageConfig{Driver: config.DriverSQLite, Path: dir})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dir, "state.db"))

	s, err = Open(config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(config.StorageConfig{Driver: "etcd"})
	assert.Error(t, err)
}

func TestTokenStore(t *testing.T) {
	t.Setenv("SGU_TOKEN", "")
	ts := NewTokenStore(NewMemoryStore())

	token, err := ts.Token()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, ts.SetToken("tok"))
	token, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, ts.ClearToken())
	require.NoError(t, ts.ClearToken(), "clearing twice is fine")

	token, err = ts.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenStore_EnvOverride(t *testing.T) {
	t.Setenv("SGU_TOKEN", "from-env")
	ts := NewTokenStore(NewMemoryStore())
	require.NoError(t, ts.SetToken("stored"))

	token, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)
	assert.True(t, ts.FromEnv())

	require.NoError(t, ts.ClearToken())
	token, _ = ts.Token()
	assert.Equal(t, "from-env", token, "clearing cannot remove the environment token")

	t.Setenv("SGU_TOKEN", "  ")
	assert.False(t, ts.FromEnv())
}
