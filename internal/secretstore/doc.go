// Package secretstore encrypts and persists the QuickBooks credential bundle.
//
// Storage is split in two layers: a BlobStore moves opaque ciphertext in and
// out of a backend, and Store layers authenticated encryption plus bundle
// (de)serialization on top. Supported backends:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Mem: In-memory storage for tests
//
// The encryption key lives in a separate key file, generated lazily on first
// use. Losing the key file invalidates every stored bundle; the only recovery
// is re-authorization.
package secretstore
