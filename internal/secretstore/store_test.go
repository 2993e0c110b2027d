package secretstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
)

func testBundle() *Bundle {
	return &Bundle{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RealmID:      "9341453907561234",
		RefreshToken: "RT1",
	}
}

func newTestStore(t *testing.T) (*Store, *MemBlobStore) {
	t.Helper()
	blobs := NewMemBlobStore()
	store, err := New(blobs, newTestCipher(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store, blobs
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	want := testBundle()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestStoreLoadAbsent(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrNoBundle) {
		t.Errorf("Load on empty store = %v, want ErrNoBundle", err)
	}
}

func TestStoreLoadTamperedCiphertext(t *testing.T) {
	ctx := context.Background()
	store, blobs := newTestStore(t)

	if err := store.Save(ctx, testBundle()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := blobs.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("parsing envelope: %v", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		t.Fatalf("decoding ciphertext: %v", err)
	}

	// Every flipped ciphertext byte must surface as a corrupt bundle,
	// never as a subtly wrong one
	for i := range ciphertext {
		tampered := make([]byte, len(ciphertext))
		copy(tampered, ciphertext)
		tampered[i] ^= 0x01

		env.Ciphertext = base64.StdEncoding.EncodeToString(tampered)
		rewrapped, err := json.Marshal(env)
		if err != nil {
			t.Fatal(err)
		}
		if err := blobs.Write(ctx, rewrapped); err != nil {
			t.Fatal(err)
		}

		var corrupt *CorruptBundleError
		if _, err := store.Load(ctx); !errors.As(err, &corrupt) {
			t.Fatalf("Load with byte %d flipped = %v, want *CorruptBundleError", i, err)
		}
	}
}

func TestStoreLoadCorruptInputs(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{name: "not json", blob: []byte("garbage")},
		{name: "wrong envelope version", blob: []byte(`{"v":99,"ciphertext":"AAAA"}`)},
		{name: "invalid base64", blob: []byte(`{"v":1,"ciphertext":"!!!"}`)},
		{name: "truncated ciphertext", blob: []byte(`{"v":1,"ciphertext":"AAAA"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, blobs := newTestStore(t)
			if err := blobs.Write(ctx, tt.blob); err != nil {
				t.Fatal(err)
			}

			var corrupt *CorruptBundleError
			if _, err := store.Load(ctx); !errors.As(err, &corrupt) {
				t.Errorf("Load = %v, want *CorruptBundleError", err)
			}
		})
	}
}

func TestStoreLoadWrongKey(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemBlobStore()

	writer, err := New(blobs, newTestCipher(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := writer.Save(ctx, testBundle()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reader, err := New(blobs, newTestCipher(t))
	if err != nil {
		t.Fatal(err)
	}

	var corrupt *CorruptBundleError
	if _, err := reader.Load(ctx); !errors.As(err, &corrupt) {
		t.Errorf("Load with different key = %v, want *CorruptBundleError", err)
	}
}

func TestStoreSaveRejectsIncompleteBundle(t *testing.T) {
	store, _ := newTestStore(t)

	bundle := testBundle()
	bundle.RefreshToken = ""
	if err := store.Save(context.Background(), bundle); err == nil {
		t.Error("Save accepted a bundle without a refresh token")
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if err := store.Save(ctx, testBundle()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoBundle) {
		t.Errorf("Load after Delete = %v, want ErrNoBundle", err)
	}

	// Deleting again is a no-op
	if err := store.Delete(ctx); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}
