package monitor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/mediakit/pkg/mediapath"
	"github.com/dmitrymomot/mediakit/pkg/storage"
	"github.com/dmitrymomot/mediakit/pkg/upload"
)

// DefaultCacheTTL is how long an aggregate metrics snapshot stays
// fresh before Snapshot recomputes it.
const DefaultCacheTTL = 5 * time.Minute

// Health thresholds.
const (
	diskWarningPercent  = 80.0
	diskCriticalPercent = 90.0
	tempWarningBytes    = 100 * 1024 * 1024
)

// DiskUsage reports OS-level disk capacity for the volume holding the
// storage root.
type DiskUsage struct {
	TotalBytes  int64   `json:"total_bytes"`
	UsedBytes   int64   `json:"used_bytes"`
	FreeBytes   int64   `json:"free_bytes"`
	PercentUsed float64 `json:"percent_used"`
}

// DirectoryStats summarizes one directory subtree.
type DirectoryStats struct {
	SizeBytes   int64 `json:"size_bytes"`
	FileCount   int   `json:"file_count"`
	SubdirCount int   `json:"subdir_count"`
}

// ExtensionStats aggregates files sharing one extension.
type ExtensionStats struct {
	Count     int   `json:"count"`
	SizeBytes int64 `json:"size_bytes"`
}

// UserUsage reports one user's storage consumption against their quota.
type UserUsage struct {
	UserID int64 `json:"user_id"`
	DirectoryStats
	FileTypes      map[string]ExtensionStats `json:"file_types"`
	QuotaBytes     int64                     `json:"quota_bytes"`
	PercentOfQuota float64                   `json:"percent_of_quota"`
}

// TeamUsage reports one team's storage consumption with a per-project
// breakdown.
type TeamUsage struct {
	TeamID int64 `json:"team_id"`
	DirectoryStats
	Projects       map[string]DirectoryStats `json:"projects"`
	QuotaBytes     int64                     `json:"quota_bytes"`
	PercentOfQuota float64                   `json:"percent_of_quota"`
}

// UsageBreakdown splits media-root usage by top-level category.
type UsageBreakdown struct {
	Users   DirectoryStats `json:"users"`
	Teams   DirectoryStats `json:"teams"`
	Temp    DirectoryStats `json:"temp"`
	Backups DirectoryStats `json:"backups"`
	Total   DirectoryStats `json:"total"`
	Disk    DiskUsage      `json:"disk"`
}

// Snapshot is one cached aggregate metrics reading.
type Snapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Breakdown UsageBreakdown `json:"breakdown"`
}

// HealthStatus grades a health check result.
type HealthStatus string

const (
	HealthOK       HealthStatus = "ok"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// Health is the result of a storage health check.
type Health struct {
	Status    HealthStatus `json:"status"`
	Disk      DiskUsage    `json:"disk"`
	TempBytes int64        `json:"temp_bytes"`
	Warnings  []string     `json:"warnings,omitempty"`
}

// Metrics collects file system usage metrics for a storage tree.
// Aggregate snapshots are cached; per-scope queries always walk the
// tree. Safe for concurrent use.
type Metrics struct {
	store *storage.Manager
	ttl   time.Duration

	mu       sync.Mutex
	cached   Snapshot
	hasCache bool
}

// MetricsOption configures a Metrics collector.
type MetricsOption func(*Metrics)

// WithCacheTTL overrides the snapshot cache lifetime. Zero disables
// caching entirely.
func WithCacheTTL(d time.Duration) MetricsOption {
	return func(m *Metrics) {
		if d >= 0 {
			m.ttl = d
		}
	}
}

// NewMetrics creates a metrics collector over the given storage tree.
func NewMetrics(store *storage.Manager, opts ...MetricsOption) *Metrics {
	m := &Metrics{store: store, ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DiskUsage returns capacity figures for the volume holding the
// storage root.
func (m *Metrics) DiskUsage() (DiskUsage, error) {
	free, total, err := m.store.AvailableDiskSpace()
	if err != nil {
		return DiskUsage{}, err
	}
	used := total - free
	var percent float64
	if total > 0 {
		percent = float64(used) / float64(total) * 100
	}
	return DiskUsage{
		TotalBytes:  total,
		UsedBytes:   used,
		FreeBytes:   free,
		PercentUsed: percent,
	}, nil
}

// DirectoryStats walks the subtree at the storage-relative path rel.
// A missing directory yields zero stats. Unreadable files are skipped.
func (m *Metrics) DirectoryStats(ctx context.Context, rel string) (DirectoryStats, error) {
	if err := ctx.Err(); err != nil {
		return DirectoryStats{}, err
	}
	root := filepath.Join(m.store.BaseDir(), filepath.FromSlash(rel))
	if _, err := os.Stat(root); err != nil {
		return DirectoryStats{}, nil
	}

	var stats DirectoryStats
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root {
				stats.SubdirCount++
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.FileCount++
		stats.SizeBytes += info.Size()
		return nil
	})
	return stats, nil
}

// UsageBreakdown walks each top-level media category plus the whole
// tree, and reads disk usage. Per-category walk failures yield zero
// stats for that category; a disk usage failure fails the call.
func (m *Metrics) UsageBreakdown(ctx context.Context) (UsageBreakdown, error) {
	var b UsageBreakdown

	categories := []struct {
		rel  string
		dest *DirectoryStats
	}{
		{"users", &b.Users},
		{"teams", &b.Teams},
		{"temp", &b.Temp},
		{"backups", &b.Backups},
		{".", &b.Total},
	}
	for _, c := range categories {
		stats, err := m.DirectoryStats(ctx, c.rel)
		if err != nil {
			return UsageBreakdown{}, err
		}
		*c.dest = stats
	}

	disk, err := m.DiskUsage()
	if err != nil {
		return UsageBreakdown{}, err
	}
	b.Disk = disk
	return b, nil
}

// UserUsage walks one user's directory, breaking file counts and
// sizes down by extension and relating the total to the user quota.
func (m *Metrics) UserUsage(ctx context.Context, userID int64) (UserUsage, error) {
	if err := ctx.Err(); err != nil {
		return UserUsage{}, err
	}

	u := UserUsage{
		UserID:     userID,
		FileTypes:  make(map[string]ExtensionStats),
		QuotaBytes: upload.MaxTotalSizePerUser,
	}
	root := filepath.Join(m.store.BaseDir(), filepath.FromSlash(mediapath.UserPath(userID)))
	if _, err := os.Stat(root); err != nil {
		return u, nil
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root {
				u.SubdirCount++
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		u.FileCount++
		u.SizeBytes += info.Size()

		ext := strings.ToLower(filepath.Ext(path))
		es := u.FileTypes[ext]
		es.Count++
		es.SizeBytes += info.Size()
		u.FileTypes[ext] = es
		return nil
	})

	u.PercentOfQuota = float64(u.SizeBytes) / float64(u.QuotaBytes) * 100
	return u, nil
}

// TeamUsage walks one team's directory and breaks usage down by
// project content folder.
func (m *Metrics) TeamUsage(ctx context.Context, teamID int64) (TeamUsage, error) {
	t := TeamUsage{
		TeamID:     teamID,
		Projects:   make(map[string]DirectoryStats),
		QuotaBytes: upload.MaxTotalSizePerTeam,
	}

	teamRel := mediapath.TeamPath(teamID)
	stats, err := m.DirectoryStats(ctx, teamRel)
	if err != nil {
		return t, err
	}
	t.DirectoryStats = stats
	t.PercentOfQuota = float64(t.SizeBytes) / float64(t.QuotaBytes) * 100

	projectsDir := filepath.Join(m.store.BaseDir(), filepath.FromSlash(teamRel), mediapath.ProjectsDir)
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return t, nil
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ps, err := m.DirectoryStats(ctx, mediapath.ProjectPath(teamID, e.Name()))
		if err != nil {
			return t, err
		}
		t.Projects[e.Name()] = ps
	}
	return t, nil
}

// Snapshot returns the cached aggregate metrics, recomputing when the
// cache is older than the TTL. When a refresh fails and a previous
// snapshot exists, the stale snapshot is returned together with the
// refresh error so callers can both render data and surface staleness.
func (m *Metrics) Snapshot(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasCache && time.Since(m.cached.Timestamp) <= m.ttl {
		return m.cached, nil
	}

	breakdown, err := m.UsageBreakdown(ctx)
	if err != nil {
		if m.hasCache {
			return m.cached, err
		}
		return Snapshot{}, err
	}

	m.cached = Snapshot{Timestamp: time.Now(), Breakdown: breakdown}
	m.hasCache = true
	observeBreakdown(breakdown)
	return m.cached, nil
}

// HealthCheck grades current disk usage and temp directory growth.
func (m *Metrics) HealthCheck(ctx context.Context) Health {
	h := Health{Status: HealthOK}

	disk, err := m.DiskUsage()
	if err != nil {
		h.Status = HealthCritical
		h.Warnings = append(h.Warnings, "disk usage unavailable: "+err.Error())
	} else {
		h.Disk = disk
		switch {
		case disk.PercentUsed > diskCriticalPercent:
			h.Status = HealthCritical
			h.Warnings = append(h.Warnings, "disk usage above 90%")
		case disk.PercentUsed > diskWarningPercent:
			h.Status = HealthWarning
			h.Warnings = append(h.Warnings, "disk usage above 80%")
		}
	}

	temp, err := m.DirectoryStats(ctx, "temp")
	if err == nil {
		h.TempBytes = temp.SizeBytes
		if temp.SizeBytes > tempWarningBytes {
			if h.Status == HealthOK {
				h.Status = HealthWarning
			}
			h.Warnings = append(h.Warnings, "temp directory exceeds 100MB")
		}
	}
	return h
}
