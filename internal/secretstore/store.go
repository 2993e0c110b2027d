package secretstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoBundle is returned by Store.Load when no bundle has ever been saved.
// This is the normal first-run condition, distinct from a corrupt bundle.
var ErrNoBundle = errors.New("no credential bundle stored")

// KeyIOError reports a filesystem problem with the encryption key or the
// persisted bundle. There is no recovery path without a working key file.
type KeyIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *KeyIOError) Error() string {
	return fmt.Sprintf("key %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *KeyIOError) Unwrap() error { return e.Err }

// CorruptBundleError reports a stored bundle that exists but cannot be
// decrypted or parsed (wrong key, truncation, tampering). The caller should
// discard the bundle and re-authorize.
type CorruptBundleError struct {
	Err error
}

func (e *CorruptBundleError) Error() string {
	return fmt.Sprintf("stored credential bundle is corrupt: %v", e.Err)
}

func (e *CorruptBundleError) Unwrap() error { return e.Err }

// Bundle holds the credentials required for silent token renewal. All four
// fields must be present; a bundle is either fully absent or fully well-formed.
type Bundle struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RealmID      string `json:"realm_id"`
	RefreshToken string `json:"refresh_token"`
}

// validate checks that every field is populated.
func (b *Bundle) validate() error {
	switch {
	case b.ClientID == "":
		return errors.New("missing client_id")
	case b.ClientSecret == "":
		return errors.New("missing client_secret")
	case b.RealmID == "":
		return errors.New("missing realm_id")
	case b.RefreshToken == "":
		return errors.New("missing refresh_token")
	}
	return nil
}

// envelope is the on-disk wrapper around the encrypted bundle.
type envelope struct {
	Version    int    `json:"v"`
	Ciphertext string `json:"ciphertext"`
}

const envelopeVersion = 1

// Store encrypts, persists, loads, and decrypts the credential bundle.
// It mediates all access to the persisted state; no other component touches
// the underlying blobs directly.
type Store struct {
	blobs  BlobStore
	cipher *Cipher
}

// New creates a Store over the given blob backend and cipher.
func New(blobs BlobStore, cipher *Cipher) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("missing blob store")
	}
	if cipher == nil {
		return nil, errors.New("missing cipher")
	}
	return &Store{blobs: blobs, cipher: cipher}, nil
}

// Load returns the decrypted bundle. Returns ErrNoBundle if nothing has been
// saved, and *CorruptBundleError if the stored blob cannot be decrypted,
// parsed, or is missing fields.
func (s *Store) Load(ctx context.Context) (*Bundle, error) {
	raw, err := s.blobs.Read(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoBundle
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential bundle: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &CorruptBundleError{Err: fmt.Errorf("parsing envelope: %w", err)}
	}
	if env.Version != envelopeVersion {
		return nil, &CorruptBundleError{Err: fmt.Errorf("unsupported envelope version %d", env.Version)}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, &CorruptBundleError{Err: fmt.Errorf("decoding ciphertext: %w", err)}
	}

	plaintext, err := s.cipher.Open(ciphertext)
	if err != nil {
		return nil, &CorruptBundleError{Err: fmt.Errorf("decrypting bundle: %w", err)}
	}

	var bundle Bundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		return nil, &CorruptBundleError{Err: fmt.Errorf("parsing bundle: %w", err)}
	}
	if err := bundle.validate(); err != nil {
		return nil, &CorruptBundleError{Err: err}
	}

	return &bundle, nil
}

// Save serializes, encrypts, and atomically persists the bundle.
func (s *Store) Save(ctx context.Context, bundle *Bundle) error {
	if bundle == nil {
		return errors.New("bundle cannot be nil")
	}
	if err := bundle.validate(); err != nil {
		return fmt.Errorf("invalid bundle: %w", err)
	}

	plaintext, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("serializing bundle: %w", err)
	}

	ciphertext, err := s.cipher.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("encrypting bundle: %w", err)
	}

	raw, err := json.Marshal(envelope{
		Version:    envelopeVersion,
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return fmt.Errorf("serializing envelope: %w", err)
	}

	if err := s.blobs.Write(ctx, raw); err != nil {
		return fmt.Errorf("writing credential bundle: %w", err)
	}
	return nil
}

// Delete removes the persisted bundle. Deleting an absent bundle is not an
// error.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.blobs.Delete(ctx); err != nil {
		return fmt.Errorf("deleting credential bundle: %w", err)
	}
	return nil
}
