package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrymomot/mediakit/pkg/mediapath"
	"github.com/dmitrymomot/mediakit/pkg/oplog"
)

// DefaultTempFileMaxAge is how long temp upload files may linger before
// cleanup removes them.
const DefaultTempFileMaxAge = 24 * time.Hour

// Cleaner removes stored files when their owning records are deleted.
type Cleaner struct {
	m     *Manager
	oplog *oplog.Logger
}

// NewCleaner creates a cleanup manager over m. The logger is optional.
func NewCleaner(m *Manager, log *oplog.Logger) *Cleaner {
	return &Cleaner{m: m, oplog: log}
}

// CleanupUserFiles removes the user's entire directory tree. A missing
// directory counts as success.
func (c *Cleaner) CleanupUserFiles(ctx context.Context, userID int64) error {
	rel := mediapath.UserPath(userID)
	if err := c.m.RemoveDirectorySafe(ctx, rel, userID); err != nil {
		c.logError(ctx, "cleanup_user_files", err, rel, userID)
		return err
	}
	return nil
}

// CleanupTeamFiles removes the team's entire directory tree, including
// all project directories beneath it.
func (c *Cleaner) CleanupTeamFiles(ctx context.Context, teamID int64) error {
	rel := mediapath.TeamPath(teamID)
	if err := c.m.RemoveDirectorySafe(ctx, rel, 0); err != nil {
		c.logError(ctx, "cleanup_team_files", err, rel, 0)
		return err
	}
	return nil
}

// CleanupProjectFiles removes a single project's directory tree.
func (c *Cleaner) CleanupProjectFiles(ctx context.Context, teamID int64, contentFolder string) error {
	if !mediapath.ValidateFilename(contentFolder) {
		return fmt.Errorf("%w: %s", ErrInvalidProjectFolderName, contentFolder)
	}
	rel := mediapath.ProjectPath(teamID, contentFolder)
	if err := c.m.RemoveDirectorySafe(ctx, rel, 0); err != nil {
		c.logError(ctx, "cleanup_project_files", err, rel, 0)
		return err
	}
	return nil
}

// CleanupTempFiles removes temp upload files older than maxAge and
// returns how many were deleted. Zero or negative maxAge uses the
// default. A missing temp directory counts as success.
func (c *Cleaner) CleanupTempFiles(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = DefaultTempFileMaxAge
	}

	abs, err := c.m.resolvePath(mediapath.TempUploadsPath)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil // file disappeared mid-walk
		}
		if info.ModTime().After(cutoff) {
			return nil
		}

		if err := os.Remove(path); err != nil {
			c.logError(ctx, "cleanup_temp_files", err, path, 0)
			return nil
		}
		removed++
		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		return removed, walkErr
	}

	if c.oplog != nil && removed > 0 {
		c.oplog.FileDeleted(ctx, mediapath.TempUploadsPath, 0, "cleanup_temp_files")
	}
	return removed, nil
}

func (c *Cleaner) logError(ctx context.Context, operation string, err error, path string, userID int64) {
	if c.oplog != nil {
		c.oplog.Error(ctx, operation, err, path, userID, true)
	}
}
