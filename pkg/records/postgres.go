package records

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mediakit/pkg/pg"
)

// PostgresSource reads records from PostgreSQL via a pgx pool.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource wraps an existing connection pool. The caller owns
// the pool lifecycle.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) UserIDs(ctx context.Context) ([]int64, error) {
	return s.queryIDs(ctx, `SELECT id FROM users ORDER BY id`)
}

func (s *PostgresSource) UserByID(ctx context.Context, id int64) (User, error) {
	var u User
	var avatar *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, avatar FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &avatar)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return User{}, ErrNotFound
		}
		return User{}, errors.Join(ErrQueryFailed, err)
	}
	if avatar != nil {
		u.AvatarPath = *avatar
	}
	return u, nil
}

func (s *PostgresSource) TeamIDs(ctx context.Context) ([]int64, error) {
	return s.queryIDs(ctx, `SELECT id FROM teams ORDER BY id`)
}

func (s *PostgresSource) Projects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, team_id, content_folder FROM projects ORDER BY id`)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.TeamID, &p.ContentFolder); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return projects, nil
}

func (s *PostgresSource) AvatarPaths(ctx context.Context) ([]string, error) {
	return s.queryPaths(ctx,
		`SELECT avatar FROM users WHERE avatar IS NOT NULL AND avatar <> ''`)
}

func (s *PostgresSource) ImagePaths(ctx context.Context) ([]string, error) {
	return s.queryPaths(ctx,
		`SELECT image FROM project_images WHERE image IS NOT NULL AND image <> ''`)
}

func (s *PostgresSource) DocumentPaths(ctx context.Context) ([]string, error) {
	return s.queryPaths(ctx,
		`SELECT file FROM project_documents WHERE file IS NOT NULL AND file <> ''
		 UNION ALL
		 SELECT file FROM glossary_files WHERE file IS NOT NULL AND file <> ''`)
}

func (s *PostgresSource) IsTeamMember(ctx context.Context, userID, teamID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE user_id = $1 AND team_id = $2)`,
		userID, teamID,
	).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrQueryFailed, err)
	}
	return exists, nil
}

func (s *PostgresSource) queryIDs(ctx context.Context, sql string) ([]int64, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return ids, nil
}

func (s *PostgresSource) queryPaths(ctx context.Context, sql string) ([]string, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return paths, nil
}
