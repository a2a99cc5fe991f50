// Package records exposes the application records that file storage
// decisions depend on: users and their avatars, teams and memberships,
// projects and the file paths currently referenced by the database.
//
// The Source interface decouples storage maintenance (orphan scans,
// quota checks, upload authorization) from the concrete database. The
// production implementation runs on PostgreSQL via pgx; a memory
// implementation backs tests.
package records

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrQueryFailed wraps database-level query failures.
	ErrQueryFailed = errors.New("record query failed")
)

// User is an account that owns an avatar and uploads files.
type User struct {
	ID         int64
	AvatarPath string // storage-relative path, empty when no avatar is set
}

// Team groups users and owns projects.
type Team struct {
	ID int64
}

// Project is a translation project owned by a team. ContentFolder is
// the sanitized directory name its files live under.
type Project struct {
	ID            int64
	TeamID        int64
	ContentFolder string
}

// Source provides read access to the records referenced by storage
// maintenance and upload authorization. Implementations must be safe
// for concurrent use.
type Source interface {
	// UserIDs returns the IDs of all existing users.
	UserIDs(ctx context.Context) ([]int64, error)
	// UserByID returns a single user. Returns ErrNotFound when the
	// user does not exist.
	UserByID(ctx context.Context, id int64) (User, error)
	// TeamIDs returns the IDs of all existing teams.
	TeamIDs(ctx context.Context) ([]int64, error)
	// Projects returns all projects across all teams.
	Projects(ctx context.Context) ([]Project, error)
	// AvatarPaths returns all avatar paths currently referenced by
	// user records. Empty paths are omitted.
	AvatarPaths(ctx context.Context) ([]string, error)
	// ImagePaths returns all project image paths referenced by the
	// database.
	ImagePaths(ctx context.Context) ([]string, error)
	// DocumentPaths returns all project document and glossary file
	// paths referenced by the database.
	DocumentPaths(ctx context.Context) ([]string, error)
	// IsTeamMember reports whether the user belongs to the team.
	IsTeamMember(ctx context.Context, userID, teamID int64) (bool, error)
}
