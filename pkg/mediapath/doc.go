// Package mediapath derives canonical relative paths for the media
// hierarchy (users, teams, projects) and validates filenames and paths
// against traversal and platform-specific hazards.
//
// All functions are pure: the same inputs always produce the same
// output, no filesystem access is performed, and returned paths always
// use forward slashes. Paths are relative to the media root and always
// live under one of the allow-listed top-level prefixes ("users/",
// "teams/", "temp/").
//
// Example:
//
//	rel := mediapath.AvatarPath(42) // "users/42/avatar.jpg"
//	if !mediapath.ValidatePathSecurity(rel) {
//	    // reject before touching the filesystem
//	}
package mediapath
