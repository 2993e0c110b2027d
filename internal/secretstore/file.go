package secretstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBlobStore provides atomic file-based blob storage with secure permissions.
// Writes use temp file + rename for crash safety.
type FileBlobStore struct {
	filePath string
}

// Compile-time check to ensure FileBlobStore implements BlobStore
var _ BlobStore = (*FileBlobStore)(nil)

// NewFileBlobStore creates a FileBlobStore for the given path, creating parent
// directories with 0700 permissions if they don't exist.
func NewFileBlobStore(filePath string) (*FileBlobStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileBlobStore{
		filePath: filePath,
	}, nil
}

// Read returns the stored blob. Returns ErrNotFound if the file doesn't exist
// and an error if it has insecure permissions.
func (f *FileBlobStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Check file permissions before reading
	info, err := os.Stat(f.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if info.Mode().Perm() != 0600 {
		return nil, fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", f.filePath, info.Mode().Perm())
	}

	data, err := os.ReadFile(f.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write atomically saves the blob using temp file + rename for crash safety.
// Sets file permissions to 0600 (owner read/write only).
func (f *FileBlobStore) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Create secure temp file in same directory for atomic rename
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write(data); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	// Restrict permissions before the blob becomes visible at its final path
	if err := os.Chmod(tempName, 0600); err != nil {
		return err
	}

	// Atomic rename to final location
	if err := os.Rename(tempName, f.filePath); err != nil {
		return err
	}

	return nil
}

// Delete removes the blob file. Returns nil if the file is already absent.
func (f *FileBlobStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
