// Package storage manages the on-disk media tree: directory structure
// creation for users, teams and projects, safe file persistence and
// safe removal.
//
// All operations are confined to the configured base directory. Paths
// are validated against traversal before any filesystem call, removals
// refuse directories containing critical files, and directory creation
// verifies free disk space and resulting permissions.
package storage
