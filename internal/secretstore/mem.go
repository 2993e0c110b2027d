package secretstore

import (
	"context"
	"sync"
)

// MemBlobStore is an in-memory BlobStore for tests and ephemeral use.
type MemBlobStore struct {
	mu   sync.Mutex
	data []byte
}

// Compile-time check to ensure MemBlobStore implements BlobStore
var _ BlobStore = (*MemBlobStore)(nil)

// NewMemBlobStore creates an empty MemBlobStore.
func NewMemBlobStore() *MemBlobStore {
	return &MemBlobStore{}
}

// Read returns a copy of the stored blob, or ErrNotFound if nothing is stored.
func (m *MemBlobStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

// Write stores a copy of the blob.
func (m *MemBlobStore) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	m.data = stored
	m.mu.Unlock()
	return nil
}

// Delete clears the stored blob.
func (m *MemBlobStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.data = nil
	m.mu.Unlock()
	return nil
}
