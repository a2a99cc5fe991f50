package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SaveFile writes the reader's contents to rel, creating parent
// directories as needed. Uses buffered I/O with context checking so
// large uploads can be canceled; partial files are removed on error.
// Returns the number of bytes written.
func (m *Manager) SaveFile(ctx context.Context, rel string, r io.Reader) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	abs, err := m.resolvePath(rel)
	if err != nil {
		return 0, err
	}

	if err := m.EnsureDirectoryExists(ctx, filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel))), 0); err != nil {
		return 0, err
	}

	// Create with restrictive permissions (644 = rw-r--r--)
	dst, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFailedToCreateFile, err)
	}

	written := int64(0)
	buf := make([]byte, 32*1024) // 32KB balances memory usage and syscall overhead
	for {
		select {
		case <-ctx.Done():
			_ = dst.Close()
			_ = os.Remove(abs) // Clean up partial file
			return 0, ctx.Err()
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				_ = dst.Close()
				_ = os.Remove(abs)
				return 0, fmt.Errorf("%w: %v", ErrFailedToWriteFile, writeErr)
			}
			written += int64(nw)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = dst.Close()
			_ = os.Remove(abs)
			return 0, fmt.Errorf("%w: %v", ErrFailedToReadFile, readErr)
		}
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(abs)
		return 0, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	return written, nil
}

// DeleteFile removes a single file. Refuses directories.
func (m *Manager) DeleteFile(ctx context.Context, rel string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	abs, err := m.resolvePath(rel)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, rel)
		}
		return fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s, use RemoveDirectorySafe instead", ErrIsDirectory, rel)
	}

	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToDeleteFile, err)
	}
	return nil
}

// Exists reports whether a file or directory exists at rel. Returns
// false for invalid paths.
func (m *Manager) Exists(rel string) bool {
	abs, err := m.resolvePath(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// FileSize returns the size in bytes of the file at rel.
func (m *Manager) FileSize(rel string) (int64, error) {
	abs, err := m.resolvePath(rel)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, rel)
		}
		return 0, fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
	return info.Size(), nil
}
