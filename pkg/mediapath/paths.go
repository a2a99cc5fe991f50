package mediapath

import "fmt"

// Content subdirectory names inside a project folder.
const (
	ImagesDir    = "images"
	DocumentsDir = "documents"
	GlossaryDir  = "glossary"
	ProjectsDir  = "projects"
)

// TempUploadsPath is where in-flight uploads are staged before their
// owning record exists.
const TempUploadsPath = "temp/uploads"

// UserPath returns the base directory for a user's files.
func UserPath(userID int64) string {
	return fmt.Sprintf("users/%d", userID)
}

// TeamPath returns the base directory for a team's files.
func TeamPath(teamID int64) string {
	return fmt.Sprintf("teams/%d", teamID)
}

// ProjectPath returns the base directory for a project's content folder.
func ProjectPath(teamID int64, contentFolder string) string {
	return fmt.Sprintf("teams/%d/%s/%s", teamID, ProjectsDir, contentFolder)
}

// AvatarPath returns the fixed avatar location for a user. Avatars are
// always normalized to a single name and extension regardless of the
// uploaded filename, so replacing an avatar overwrites the previous one.
func AvatarPath(userID int64) string {
	return fmt.Sprintf("users/%d/avatar.jpg", userID)
}

// ProjectImagePath returns the destination for a project image. The
// filename is used as given: sanitize it first.
func ProjectImagePath(teamID int64, contentFolder, filename string) string {
	return fmt.Sprintf("%s/%s/%s", ProjectPath(teamID, contentFolder), ImagesDir, filename)
}

// ProjectDocumentPath returns the destination for a project document.
func ProjectDocumentPath(teamID int64, contentFolder, filename string) string {
	return fmt.Sprintf("%s/%s/%s", ProjectPath(teamID, contentFolder), DocumentsDir, filename)
}

// ProjectGlossaryPath returns the destination for a project glossary file.
func ProjectGlossaryPath(teamID int64, contentFolder, filename string) string {
	return fmt.Sprintf("%s/%s/%s", ProjectPath(teamID, contentFolder), GlossaryDir, filename)
}
