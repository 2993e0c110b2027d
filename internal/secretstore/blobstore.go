package secretstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore.Read when no blob has been stored.
var ErrNotFound = errors.New("blob not found")

// BlobStore reads and writes opaque ciphertext blobs to persistent storage.
//
// Writes must be atomic from a concurrent reader's perspective: a reader sees
// either the previous blob or the new one, never a partial write.
type BlobStore interface {
	// Read returns the stored blob. Returns ErrNotFound if nothing is stored.
	Read(ctx context.Context) ([]byte, error)

	// Write persists the blob, replacing any previous value atomically.
	Write(ctx context.Context, data []byte) error

	// Delete removes the stored blob. Deleting an absent blob is not an error.
	Delete(ctx context.Context) error
}
