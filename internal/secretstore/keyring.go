package secretstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringBlobStore provides OS-native secure credential storage for the bundle.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
// Blobs are base64-encoded since keyring backends store strings.
type KeyringBlobStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringBlobStore implements BlobStore
var _ BlobStore = (*KeyringBlobStore)(nil)

// NewKeyringBlobStore creates a KeyringBlobStore for the OS-native credential
// storage using the given service and user identifiers.
func NewKeyringBlobStore(service, user string) (*KeyringBlobStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringBlobStore{
		service: service,
		user:    user,
	}, nil
}

// Read returns the blob from the system keyring. Returns ErrNotFound if no
// entry exists for the service/user pair.
func (k *KeyringBlobStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding keyring entry for service %s, user %s: %w", k.service, k.user, err)
	}
	return data, nil
}

// Write persists the blob to the system keyring, overwriting any existing value.
func (k *KeyringBlobStore) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, base64.StdEncoding.EncodeToString(data))
}

// Delete removes the keyring entry. Returns nil if no entry exists.
func (k *KeyringBlobStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := keyring.Delete(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
