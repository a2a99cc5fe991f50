package monitor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediakit/pkg/monitor"
	"github.com/dmitrymomot/mediakit/pkg/storage"
)

func newTestStorage(t *testing.T) *storage.Manager {
	t.Helper()
	m, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

func writeFile(t *testing.T, base, rel string, size int) {
	t.Helper()
	abs := filepath.Join(base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, make([]byte, size), 0o644))
}

func TestMetricsDiskUsage(t *testing.T) {
	t.Parallel()

	metrics := monitor.NewMetrics(newTestStorage(t))

	disk, err := metrics.DiskUsage()
	require.NoError(t, err)
	assert.Positive(t, disk.TotalBytes)
	assert.Equal(t, disk.TotalBytes-disk.FreeBytes, disk.UsedBytes)
	assert.GreaterOrEqual(t, disk.PercentUsed, 0.0)
	assert.LessOrEqual(t, disk.PercentUsed, 100.0)
}

func TestMetricsDirectoryStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newTestStorage(t)
	metrics := monitor.NewMetrics(store)

	writeFile(t, store.BaseDir(), "users/1/avatar.jpg", 100)
	writeFile(t, store.BaseDir(), "users/1/documents/a.pdf", 200)
	writeFile(t, store.BaseDir(), "users/2/avatar.jpg", 50)

	stats, err := metrics.DirectoryStats(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int64(350), stats.SizeBytes)
	assert.Equal(t, 3, stats.FileCount)
	assert.Equal(t, 3, stats.SubdirCount) // users/1, users/1/documents, users/2

	missing, err := metrics.DirectoryStats(ctx, "teams")
	require.NoError(t, err)
	assert.Zero(t, missing.SizeBytes)
	assert.Zero(t, missing.FileCount)
}

func TestMetricsUserUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newTestStorage(t)
	metrics := monitor.NewMetrics(store)

	writeFile(t, store.BaseDir(), "users/7/avatar.jpg", 1000)
	writeFile(t, store.BaseDir(), "users/7/documents/a.pdf", 2000)
	writeFile(t, store.BaseDir(), "users/7/documents/b.pdf", 3000)

	usage, err := metrics.UserUsage(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), usage.UserID)
	assert.Equal(t, int64(6000), usage.SizeBytes)
	assert.Equal(t, 3, usage.FileCount)
	assert.Equal(t, 2, usage.FileTypes[".pdf"].Count)
	assert.Equal(t, int64(5000), usage.FileTypes[".pdf"].SizeBytes)
	assert.Equal(t, 1, usage.FileTypes[".jpg"].Count)
	assert.Positive(t, usage.QuotaBytes)
	assert.InDelta(t, float64(6000)/float64(usage.QuotaBytes)*100, usage.PercentOfQuota, 0.001)
}

func TestMetricsUserUsageMissingDirectory(t *testing.T) {
	t.Parallel()

	metrics := monitor.NewMetrics(newTestStorage(t))

	usage, err := metrics.UserUsage(context.Background(), 404)
	require.NoError(t, err)
	assert.Zero(t, usage.SizeBytes)
	assert.Empty(t, usage.FileTypes)
}

func TestMetricsTeamUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newTestStorage(t)
	metrics := monitor.NewMetrics(store)

	writeFile(t, store.BaseDir(), "teams/3/documents/readme.pdf", 100)
	writeFile(t, store.BaseDir(), "teams/3/projects/website/images/logo.png", 400)
	writeFile(t, store.BaseDir(), "teams/3/projects/app/documents/spec.pdf", 500)

	usage, err := metrics.TeamUsage(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), usage.TeamID)
	assert.Equal(t, int64(1000), usage.SizeBytes)
	require.Len(t, usage.Projects, 2)
	assert.Equal(t, int64(400), usage.Projects["website"].SizeBytes)
	assert.Equal(t, int64(500), usage.Projects["app"].SizeBytes)
}

func TestMetricsUsageBreakdown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newTestStorage(t)
	metrics := monitor.NewMetrics(store)

	writeFile(t, store.BaseDir(), "users/1/avatar.jpg", 100)
	writeFile(t, store.BaseDir(), "teams/2/documents/a.pdf", 200)
	writeFile(t, store.BaseDir(), "temp/uploads/chunk", 50)

	b, err := metrics.UsageBreakdown(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Users.SizeBytes)
	assert.Equal(t, int64(200), b.Teams.SizeBytes)
	assert.Equal(t, int64(50), b.Temp.SizeBytes)
	assert.Zero(t, b.Backups.SizeBytes)
	assert.Equal(t, int64(350), b.Total.SizeBytes)
	assert.Positive(t, b.Disk.TotalBytes)
}

func TestMetricsSnapshotCaching(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newTestStorage(t)
	metrics := monitor.NewMetrics(store)

	writeFile(t, store.BaseDir(), "users/1/avatar.jpg", 100)

	first, err := metrics.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), first.Breakdown.Users.SizeBytes)

	// New files are invisible until the TTL expires.
	writeFile(t, store.BaseDir(), "users/2/avatar.jpg", 100)

	second, err := metrics.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Timestamp, second.Timestamp)
	assert.Equal(t, int64(100), second.Breakdown.Users.SizeBytes)
}

func TestMetricsSnapshotServesStaleOnRefreshFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newTestStorage(t)
	metrics := monitor.NewMetrics(store, monitor.WithCacheTTL(0))

	writeFile(t, store.BaseDir(), "users/1/avatar.jpg", 100)

	first, err := metrics.Snapshot(ctx)
	require.NoError(t, err)

	// Removing the storage root makes the disk usage read fail.
	require.NoError(t, os.RemoveAll(store.BaseDir()))

	stale, err := metrics.Snapshot(ctx)
	require.Error(t, err)
	assert.Equal(t, first.Timestamp, stale.Timestamp)
	assert.Equal(t, first.Breakdown, stale.Breakdown)
}

func TestMetricsHealthCheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newTestStorage(t)
	metrics := monitor.NewMetrics(store)

	writeFile(t, store.BaseDir(), "temp/uploads/small", 100)

	h := metrics.HealthCheck(ctx)
	assert.Contains(t, []monitor.HealthStatus{
		monitor.HealthOK, monitor.HealthWarning, monitor.HealthCritical,
	}, h.Status)
	assert.Positive(t, h.Disk.TotalBytes)
	assert.Equal(t, int64(100), h.TempBytes)
	assert.NotContains(t, h.Warnings, "temp directory exceeds 100MB")
}
