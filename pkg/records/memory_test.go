package records_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mediakit/pkg/records"
)

func TestMemorySource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		t.Parallel()

		src := records.NewMemorySource()
		src.AddUser(records.User{ID: 1, AvatarPath: "users/1/avatar.jpg"})
		src.AddUser(records.User{ID: 2})

		ids, err := src.UserIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{1, 2}, ids)

		u, err := src.UserByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "users/1/avatar.jpg", u.AvatarPath)

		_, err = src.UserByID(ctx, 99)
		require.ErrorIs(t, err, records.ErrNotFound)

		// Avatar paths skip users without avatars.
		paths, err := src.AvatarPaths(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"users/1/avatar.jpg"}, paths)
	})

	t.Run("projects and teams", func(t *testing.T) {
		t.Parallel()

		src := records.NewMemorySource()
		src.AddTeam(records.Team{ID: 7})
		src.AddProject(records.Project{ID: 3, TeamID: 7, ContentFolder: "website"})

		teams, err := src.TeamIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{7}, teams)

		projects, err := src.Projects(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, "website", projects[0].ContentFolder)
	})

	t.Run("membership", func(t *testing.T) {
		t.Parallel()

		src := records.NewMemorySource()
		src.AddMember(1, 7)

		ok, err := src.IsTeamMember(ctx, 1, 7)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = src.IsTeamMember(ctx, 2, 7)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("referenced paths", func(t *testing.T) {
		t.Parallel()

		src := records.NewMemorySource()
		src.AddImagePath("teams/7/projects/website/images/logo.png")
		src.AddDocumentPath("teams/7/projects/website/documents/a.po")

		images, err := src.ImagePaths(ctx)
		require.NoError(t, err)
		assert.Len(t, images, 1)

		docs, err := src.DocumentPaths(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}
