package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/dmitrymomot/mediakit/pkg/mediapath"
	"github.com/dmitrymomot/mediakit/pkg/oplog"
)

// DefaultMinFreeBytes is the free disk space floor required before any
// directory is created.
const DefaultMinFreeBytes = 100 * 1024 * 1024 // 100MB

// criticalPatterns name files that must never be removed by storage
// cleanup. A directory containing any match is refused for deletion.
var criticalPatterns = []string{
	"*.db",      // database files
	"*.sqlite*", // SQLite files
	"settings.py",
	"*.env",
}

// Manager creates and removes directories under the media root.
// All operations are confined to baseDir. Safe for concurrent use.
type Manager struct {
	baseDir      string
	minFreeBytes int64
	oplog        *oplog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithMinFreeBytes overrides the free disk space floor.
func WithMinFreeBytes(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.minFreeBytes = n
		}
	}
}

// WithOperationLogger attaches an audit logger. Nil loggers are ignored.
func WithOperationLogger(l *oplog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.oplog = l
		}
	}
}

// NewManager creates a storage manager rooted at baseDir. The directory
// is resolved to an absolute path and created if missing.
func NewManager(baseDir string, opts ...Option) (*Manager, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGetAbsolutePath, err)
	}
	if err := os.MkdirAll(absBaseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	m := &Manager{
		baseDir:      absBaseDir,
		minFreeBytes: DefaultMinFreeBytes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// BaseDir returns the absolute media root.
func (m *Manager) BaseDir() string { return m.baseDir }

// resolvePath validates rel against traversal and maps it to an
// absolute path confined to baseDir.
func (m *Manager) resolvePath(rel string) (string, error) {
	if !mediapath.ValidatePathSecurity(rel) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}

	abs := filepath.Join(m.baseDir, filepath.FromSlash(rel))
	// Join cleans the path; re-check confinement after cleaning.
	if abs != m.baseDir && !within(abs, m.baseDir) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, rel)
	}
	return abs, nil
}

func within(path, base string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// EnsureDirectoryExists creates the directory at rel (and any parents)
// if it does not exist, verifying disk space before creation and
// read/write access after.
func (m *Manager) EnsureDirectoryExists(ctx context.Context, rel string, userID int64) error {
	abs, err := m.resolvePath(rel)
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(abs); statErr == nil {
		return nil
	}

	if err := m.checkDiskSpace(ctx, filepath.Dir(abs)); err != nil {
		return err
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		m.logError(ctx, "directory_creation_failed", err, rel, userID)
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: permission denied: %v", ErrFailedToCreateDirectory, err)
		}
		return fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	if err := unix.Access(abs, unix.R_OK|unix.W_OK); err != nil {
		accessErr := fmt.Errorf("%w: %s", ErrInsufficientPermissions, rel)
		m.logError(ctx, "directory_creation_failed", accessErr, rel, userID)
		return accessErr
	}

	if m.oplog != nil {
		m.oplog.DirectoryCreated(ctx, rel, userID, "ensure_directory_exists")
	}
	return nil
}

// CreateUserDirectory creates the per-user directory structure.
func (m *Manager) CreateUserDirectory(ctx context.Context, userID int64) error {
	userPath := mediapath.UserPath(userID)
	if err := m.EnsureDirectoryExists(ctx, userPath, userID); err != nil {
		return err
	}
	return m.EnsureDirectoryExists(ctx, userPath+"/documents", userID)
}

// CreateTeamDirectory creates the per-team directory structure.
func (m *Manager) CreateTeamDirectory(ctx context.Context, teamID int64) error {
	teamPath := mediapath.TeamPath(teamID)
	if err := m.EnsureDirectoryExists(ctx, teamPath, 0); err != nil {
		return err
	}
	for _, sub := range []string{"documents", "projects"} {
		if err := m.EnsureDirectoryExists(ctx, teamPath+"/"+sub, 0); err != nil {
			return err
		}
	}
	return nil
}

// CreateProjectDirectory creates the per-project directory structure
// with images, documents and glossary subdirectories. The content
// folder name must pass filename validation.
func (m *Manager) CreateProjectDirectory(ctx context.Context, teamID int64, contentFolder string) error {
	if !mediapath.ValidateFilename(contentFolder) {
		return fmt.Errorf("%w: %s", ErrInvalidProjectFolderName, contentFolder)
	}

	projectPath := mediapath.ProjectPath(teamID, contentFolder)
	if err := m.EnsureDirectoryExists(ctx, projectPath, 0); err != nil {
		return err
	}
	for _, sub := range []string{"images", "documents", "glossary"} {
		if err := m.EnsureDirectoryExists(ctx, projectPath+"/"+sub, 0); err != nil {
			return err
		}
	}
	return nil
}

// RemoveDirectorySafe removes the directory at rel and everything in
// it. Unsafe paths and directories containing critical files are
// refused. Removing a missing directory is not an error.
func (m *Manager) RemoveDirectorySafe(ctx context.Context, rel string, userID int64) error {
	abs, err := m.resolvePath(rel)
	if err != nil {
		if m.oplog != nil && errors.Is(err, ErrUnsafePath) {
			m.oplog.SecurityViolation(ctx, "unsafe_directory_deletion", rel, userID, "",
				"attempt to delete unsafe path")
		}
		return err
	}

	info, statErr := os.Stat(abs)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrFailedToStatPath, statErr)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, rel)
	}

	if m.containsCriticalFiles(abs) {
		critErr := fmt.Errorf("%w: %s", ErrCriticalFilesPresent, rel)
		m.logError(ctx, "file_cleanup_failed", critErr, rel, userID)
		return critErr
	}

	if err := os.RemoveAll(abs); err != nil {
		m.logError(ctx, "file_cleanup_failed", err, rel, userID)
		return fmt.Errorf("%w: %v", ErrFailedToDeleteDirectory, err)
	}

	if m.oplog != nil {
		m.oplog.FileDeleted(ctx, rel, userID, "remove_directory_safe")
	}
	return nil
}

// DirectorySize returns the total size in bytes of all files under
// rel. A missing directory has size zero; unreadable entries are
// skipped.
func (m *Manager) DirectorySize(rel string) (int64, error) {
	abs, err := m.resolvePath(rel)
	if err != nil {
		return 0, err
	}

	// The walk never aborts: per-entry errors skip the entry and the
	// total reflects what could be counted.
	var total int64
	_ = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fs.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total, nil
}

// AvailableDiskSpace returns free and total bytes of the filesystem
// holding the media root.
func (m *Manager) AvailableDiskSpace() (free, total int64, err error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(m.baseDir, &stat); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
	bsize := int64(stat.Bsize)
	return int64(stat.Bavail) * bsize, int64(stat.Blocks) * bsize, nil
}

// checkDiskSpace fails when free space is below the configured floor.
// A failing statfs is logged but does not block the operation.
func (m *Manager) checkDiskSpace(ctx context.Context, dir string) error {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		// Walk up until an existing directory is found.
		parent := filepath.Dir(dir)
		if parent != dir {
			return m.checkDiskSpace(ctx, parent)
		}
		m.logError(ctx, "disk_space_check", err, dir, 0)
		return nil
	}

	available := int64(stat.Bavail) * int64(stat.Bsize)
	if available < m.minFreeBytes {
		if m.oplog != nil {
			m.oplog.DiskSpaceWarning(ctx, dir, available, m.minFreeBytes)
		}
		return fmt.Errorf("%w: %d bytes available, %d bytes required",
			ErrInsufficientDiskSpace, available, m.minFreeBytes)
	}
	return nil
}

// containsCriticalFiles walks the directory looking for critical file
// patterns. Any walk or match error counts as critical (fail closed).
func (m *Manager) containsCriticalFiles(dir string) bool {
	found := false
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		for _, pattern := range criticalPatterns {
			ok, matchErr := filepath.Match(pattern, name)
			if matchErr != nil {
				return matchErr
			}
			if ok {
				found = true
				return fs.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil {
		return true
	}
	return found
}

func (m *Manager) logError(ctx context.Context, operation string, err error, path string, userID int64) {
	if m.oplog != nil {
		m.oplog.Error(ctx, operation, err, path, userID, false)
	}
}
