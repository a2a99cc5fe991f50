package mediapath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/mediakit/pkg/mediapath"
)

func TestUserPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "users/42", mediapath.UserPath(42))
	assert.Equal(t, "users/42/avatar.jpg", mediapath.AvatarPath(42))
}

func TestTeamPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "teams/7", mediapath.TeamPath(7))
	assert.Equal(t, "teams/7/projects/website-v2", mediapath.ProjectPath(7, "website-v2"))
}

func TestProjectContentPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"teams/7/projects/website-v2/images/banner.png",
		mediapath.ProjectImagePath(7, "website-v2", "banner.png"))
	assert.Equal(t,
		"teams/7/projects/website-v2/documents/brief.pdf",
		mediapath.ProjectDocumentPath(7, "website-v2", "brief.pdf"))
	assert.Equal(t,
		"teams/7/projects/website-v2/glossary/terms.csv",
		mediapath.ProjectGlossaryPath(7, "website-v2", "terms.csv"))
}
