package localfs

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveOpenPathRoundTrip(t *testing.T) {
	base := t.TempDir()
	storage, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := storage.Save(context.Background(), "doc-1_a.pdf", strings.NewReader("%PDF-1.7 body")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reader, err := storage.Open(context.Background(), "doc-1_a.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "%PDF-1.7 body" {
		t.Fatalf("content = %q", raw)
	}

	if got, want := storage.Path("doc-1_a.pdf"), filepath.Join(base, "doc-1_a.pdf"); got != want {
		t.Fatalf("Path() = %q, want %q", got, want)
	}
}

func TestOpenMissingKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := storage.Open(context.Background(), "nope.pdf"); err == nil {
		t.Fatalf("expected error for a missing key")
	}
}
