package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediakit/pkg/storage"
)

func newTestManager(t *testing.T, opts ...storage.Option) *storage.Manager {
	t.Helper()
	m, err := storage.NewManager(t.TempDir(), opts...)
	require.NoError(t, err)
	return m
}

func TestNewManager(t *testing.T) {
	t.Parallel()

	t.Run("empty base dir", func(t *testing.T) {
		t.Parallel()
		_, err := storage.NewManager("")
		require.ErrorIs(t, err, storage.ErrInvalidConfig)
	})

	t.Run("creates missing base dir", func(t *testing.T) {
		t.Parallel()
		base := filepath.Join(t.TempDir(), "media")
		m, err := storage.NewManager(base)
		require.NoError(t, err)
		assert.DirExists(t, m.BaseDir())
	})
}

func TestEnsureDirectoryExists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates nested directories", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		require.NoError(t, m.EnsureDirectoryExists(ctx, "users/42", 42))
		assert.DirExists(t, filepath.Join(m.BaseDir(), "users", "42"))
	})

	t.Run("existing directory is a no-op", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		require.NoError(t, m.EnsureDirectoryExists(ctx, "users/1", 1))
		require.NoError(t, m.EnsureDirectoryExists(ctx, "users/1", 1))
	})

	t.Run("rejects traversal", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		err := m.EnsureDirectoryExists(ctx, "users/../../etc", 1)
		require.ErrorIs(t, err, storage.ErrUnsafePath)
	})

	t.Run("rejects absolute path", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		err := m.EnsureDirectoryExists(ctx, "/etc/cron.d", 1)
		require.ErrorIs(t, err, storage.ErrUnsafePath)
	})

	t.Run("rejects path outside allowed roots", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		err := m.EnsureDirectoryExists(ctx, "secrets/keys", 1)
		require.ErrorIs(t, err, storage.ErrUnsafePath)
	})
}

func TestCreateUserDirectory(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	require.NoError(t, m.CreateUserDirectory(context.Background(), 42))

	assert.DirExists(t, filepath.Join(m.BaseDir(), "users", "42"))
	assert.DirExists(t, filepath.Join(m.BaseDir(), "users", "42", "documents"))
}

func TestCreateTeamDirectory(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	require.NoError(t, m.CreateTeamDirectory(context.Background(), 7))

	assert.DirExists(t, filepath.Join(m.BaseDir(), "teams", "7"))
	assert.DirExists(t, filepath.Join(m.BaseDir(), "teams", "7", "documents"))
	assert.DirExists(t, filepath.Join(m.BaseDir(), "teams", "7", "projects"))
}

func TestCreateProjectDirectory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates full structure", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		require.NoError(t, m.CreateProjectDirectory(ctx, 7, "website"))

		base := filepath.Join(m.BaseDir(), "teams", "7", "projects", "website")
		assert.DirExists(t, base)
		assert.DirExists(t, filepath.Join(base, "images"))
		assert.DirExists(t, filepath.Join(base, "documents"))
		assert.DirExists(t, filepath.Join(base, "glossary"))
	})

	t.Run("rejects invalid folder name", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		err := m.CreateProjectDirectory(ctx, 7, "web<site>")
		require.ErrorIs(t, err, storage.ErrInvalidProjectFolderName)
	})

	t.Run("rejects traversal in folder name", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		err := m.CreateProjectDirectory(ctx, 7, "../escape")
		require.Error(t, err)
	})
}

func TestRemoveDirectorySafe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("removes existing directory", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		require.NoError(t, m.CreateUserDirectory(ctx, 5))
		require.NoError(t, m.RemoveDirectorySafe(ctx, "users/5", 5))
		assert.NoDirExists(t, filepath.Join(m.BaseDir(), "users", "5"))
	})

	t.Run("missing directory is not an error", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		require.NoError(t, m.RemoveDirectorySafe(ctx, "users/999", 999))
	})

	t.Run("refuses directory containing a database file", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		require.NoError(t, m.CreateUserDirectory(ctx, 6))
		dbPath := filepath.Join(m.BaseDir(), "users", "6", "app.db")
		require.NoError(t, os.WriteFile(dbPath, []byte("sqlite"), 0o644))

		err := m.RemoveDirectorySafe(ctx, "users/6", 6)
		require.ErrorIs(t, err, storage.ErrCriticalFilesPresent)
		assert.FileExists(t, dbPath)
	})

	t.Run("refuses nested critical files", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		require.NoError(t, m.CreateProjectDirectory(ctx, 1, "demo"))
		envPath := filepath.Join(m.BaseDir(), "teams", "1", "projects", "demo", "documents", "prod.env")
		require.NoError(t, os.WriteFile(envPath, []byte("SECRET=1"), 0o644))

		err := m.RemoveDirectorySafe(ctx, "teams/1/projects/demo", 0)
		require.ErrorIs(t, err, storage.ErrCriticalFilesPresent)
	})

	t.Run("refuses unsafe path", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		err := m.RemoveDirectorySafe(ctx, "../outside", 1)
		require.ErrorIs(t, err, storage.ErrUnsafePath)
	})
}

func TestAvailableDiskSpace(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	free, total, err := m.AvailableDiskSpace()
	require.NoError(t, err)
	assert.Positive(t, total)
	assert.GreaterOrEqual(t, total, free)
}

func TestDirectorySize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("sums nested files", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		require.NoError(t, m.CreateUserDirectory(ctx, 7))
		_, err := m.SaveFile(ctx, "users/7/a.txt", strings.NewReader("12345"))
		require.NoError(t, err)
		_, err = m.SaveFile(ctx, "users/7/documents/b.txt", strings.NewReader("1234567890"))
		require.NoError(t, err)

		size, err := m.DirectorySize("users/7")
		require.NoError(t, err)
		assert.Equal(t, int64(15), size)
	})

	t.Run("missing directory is zero", func(t *testing.T) {
		t.Parallel()

		m := newTestManager(t)
		size, err := m.DirectorySize("users/404")
		require.NoError(t, err)
		assert.Zero(t, size)
	})
}
