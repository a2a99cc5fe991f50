package storage

import "errors"

var (
	// Security errors
	ErrUnsafePath           = errors.New("unsafe path rejected") // Prevents path traversal attacks
	ErrCriticalFilesPresent = errors.New("directory contains critical files")

	// Directory errors
	ErrInvalidConfig            = errors.New("invalid storage configuration")
	ErrInsufficientDiskSpace    = errors.New("insufficient disk space")
	ErrInsufficientPermissions  = errors.New("created directory has insufficient permissions")
	ErrInvalidProjectFolderName = errors.New("invalid project folder name")

	// File system errors
	ErrFileNotFound = errors.New("file not found")
	ErrIsDirectory  = errors.New("path is a directory")
	ErrNotDirectory = errors.New("path is not a directory")

	// I/O operation errors - wrapped with context for debugging
	ErrFailedToCreateDirectory = errors.New("failed to create directory")
	ErrFailedToDeleteDirectory = errors.New("failed to delete directory")
	ErrFailedToCreateFile      = errors.New("failed to create file")
	ErrFailedToWriteFile       = errors.New("failed to write file")
	ErrFailedToReadFile        = errors.New("failed to read file")
	ErrFailedToDeleteFile      = errors.New("failed to delete file")
	ErrFailedToStatPath        = errors.New("failed to stat path")
	ErrFailedToGetAbsolutePath = errors.New("failed to get absolute path")
)
