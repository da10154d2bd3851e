package photostore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// Minimal PNG header so content sniffing resolves the extension.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestPutWritesFileAndReturnsURL(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewDir(root, "/photos/")

	url, err := store.Put(context.Background(), "attendee-1", pngBytes)
	if err != nil {
		t.Fatalf("put photo: %v", err)
	}
	if url != "/photos/attendee-1.png" {
		t.Fatalf("url = %q, want /photos/attendee-1.png", url)
	}

	data, err := os.ReadFile(filepath.Join(root, "attendee-1.png"))
	if err != nil {
		t.Fatalf("read stored photo: %v", err)
	}
	if len(data) != len(pngBytes) {
		t.Fatalf("stored %d bytes, want %d", len(data), len(pngBytes))
	}
}

func TestPutDefaultsToJPEG(t *testing.T) {
	t.Parallel()

	store := NewDir(t.TempDir(), "/photos")
	url, err := store.Put(context.Background(), "attendee-2", []byte("opaque bytes"))
	if err != nil {
		t.Fatalf("put photo: %v", err)
	}
	if url != "/photos/attendee-2.jpg" {
		t.Fatalf("url = %q, want /photos/attendee-2.jpg", url)
	}
}

func TestPutMissingDirectory(t *testing.T) {
	t.Parallel()

	store := NewDir(filepath.Join(t.TempDir(), "missing"), "/photos")
	if _, err := store.Put(context.Background(), "attendee-3", pngBytes); !errors.Is(err, ErrBucketMissing) {
		t.Fatalf("error = %v, want %v", err, ErrBucketMissing)
	}
}

func TestPutRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	store := NewDir(t.TempDir(), "/photos")
	for _, key := range []string{"", "../escape", "nested/name"} {
		if _, err := store.Put(context.Background(), key, pngBytes); err == nil {
			t.Fatalf("put with key %q succeeded, want error", key)
		}
	}
}
