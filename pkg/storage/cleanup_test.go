package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediakit/pkg/storage"
)

func TestCleanupUserFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("removes user tree", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		c := storage.NewCleaner(m, nil)

		require.NoError(t, m.CreateUserDirectory(ctx, 42))
		_, err := m.SaveFile(ctx, "users/42/avatar.jpg", strings.NewReader("x"))
		require.NoError(t, err)

		require.NoError(t, c.CleanupUserFiles(ctx, 42))
		assert.NoDirExists(t, filepath.Join(m.BaseDir(), "users", "42"))
	})

	t.Run("missing directory succeeds", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		c := storage.NewCleaner(m, nil)
		require.NoError(t, c.CleanupUserFiles(ctx, 404))
	})
}

func TestCleanupTeamAndProjectFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newTestManager(t)
	c := storage.NewCleaner(m, nil)

	require.NoError(t, m.CreateTeamDirectory(ctx, 7))
	require.NoError(t, m.CreateProjectDirectory(ctx, 7, "website"))

	require.NoError(t, c.CleanupProjectFiles(ctx, 7, "website"))
	assert.NoDirExists(t, filepath.Join(m.BaseDir(), "teams", "7", "projects", "website"))
	assert.DirExists(t, filepath.Join(m.BaseDir(), "teams", "7"))

	require.NoError(t, c.CleanupTeamFiles(ctx, 7))
	assert.NoDirExists(t, filepath.Join(m.BaseDir(), "teams", "7"))

	err := c.CleanupProjectFiles(ctx, 7, "bad<name>")
	require.ErrorIs(t, err, storage.ErrInvalidProjectFolderName)
}

func TestCleanupTempFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("removes only stale files", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		c := storage.NewCleaner(m, nil)

		_, err := m.SaveFile(ctx, "temp/uploads/stale.tmp", strings.NewReader("old"))
		require.NoError(t, err)
		_, err = m.SaveFile(ctx, "temp/uploads/fresh.tmp", strings.NewReader("new"))
		require.NoError(t, err)

		stale := filepath.Join(m.BaseDir(), "temp", "uploads", "stale.tmp")
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(stale, old, old))

		removed, err := c.CleanupTempFiles(ctx, 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
		assert.NoFileExists(t, stale)
		assert.FileExists(t, filepath.Join(m.BaseDir(), "temp", "uploads", "fresh.tmp"))
	})

	t.Run("missing temp directory succeeds", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		c := storage.NewCleaner(m, nil)

		removed, err := c.CleanupTempFiles(ctx, 0)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}
