package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestDiskBlobStore_Put(t *testing.T) {
	dir := t.TempDir()
	b := NewDiskBlobStore(dir)
	ctx := context.Background()

	if err := b.Put(ctx, "P-2024/00042-complaint.txt", stringsReader("text"), 4, "text/plain"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "P-2024", "00042-complaint.txt"))
	if err != nil {
		t.Fatalf("Expected blob on disk: %v", err)
	}
	if string(data) != "text" {
		t.Errorf("Expected contents 'text', got %q", data)
	}

	err = b.Put(ctx, "P-2024/00042-complaint.txt", stringsReader("again"), 5, "text/plain")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict on existing key, got %v", err)
	}
}

func TestDiskBlobStore_KeyStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	b := NewDiskBlobStore(filepath.Join(dir, "blobs"))

	if err := b.Put(context.Background(), "../../escape.txt", stringsReader("x"), 1, ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "blobs", "escape.txt")); err != nil {
		t.Errorf("Expected blob inside blob dir: %v", err)
	}
}

func TestDiskBlobStore_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	b := NewDiskBlobStore(dir)

	if err := b.Put(context.Background(), "short.txt", stringsReader("abc"), 10, ""); err == nil {
		t.Fatal("Expected error on short write")
	}
	if _, err := os.Stat(filepath.Join(dir, "short.txt")); !os.IsNotExist(err) {
		t.Error("Expected partial blob to be removed")
	}
}
