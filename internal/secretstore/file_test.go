package secretstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileBlobStoreReadAbsent(t *testing.T) {
	store, err := NewFileBlobStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileBlobStore: %v", err)
	}

	if _, err := store.Read(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read = %v, want ErrNotFound", err)
	}
}

func TestFileBlobStoreWriteRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, err := NewFileBlobStore(path)
	if err != nil {
		t.Fatalf("NewFileBlobStore: %v", err)
	}

	if err := store.Write(ctx, []byte("blob-v1")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %04o, want 0600", info.Mode().Perm())
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "blob-v1" {
		t.Errorf("Read = %q, want %q", got, "blob-v1")
	}
}

func TestFileBlobStoreRejectsInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store, err := NewFileBlobStore(path)
	if err != nil {
		t.Fatalf("NewFileBlobStore: %v", err)
	}
	if err := os.WriteFile(path, []byte("blob"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Read(context.Background()); err == nil {
		t.Error("Read accepted a world-readable bundle file")
	}
}

func TestFileBlobStoreWriteLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileBlobStore(filepath.Join(dir, "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileBlobStore: %v", err)
	}

	if err := store.Write(ctx, []byte("blob-v1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Write(ctx, []byte("blob-v2")); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contains %v, want only tokens.json", names)
	}
}

// A write interrupted before the rename must leave the previous blob intact.
// Simulated by writing the replacement to the temp path without renaming.
func TestFileBlobStoreInterruptedWritePreservesOldBlob(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")
	store, err := NewFileBlobStore(path)
	if err != nil {
		t.Fatalf("NewFileBlobStore: %v", err)
	}

	if err := store.Write(ctx, []byte("blob-v1")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "crashed.tmp"), []byte("blob-v2-partial"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "blob-v1" {
		t.Errorf("Read = %q, want previous blob %q", got, "blob-v1")
	}
}

func TestFileBlobStoreDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileBlobStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("NewFileBlobStore: %v", err)
	}

	// Deleting an absent blob is fine
	if err := store.Delete(ctx); err != nil {
		t.Errorf("Delete of absent blob: %v", err)
	}

	if err := store.Write(ctx, []byte("blob")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Read(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read after Delete = %v, want ErrNotFound", err)
	}
}
