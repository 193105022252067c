package artifact_test

import (
	"io"
	"strings"
	"testing"

	"github.com/courseforge/courseforge/internal/artifact"
)

func TestFSStore_PutGet(t *testing.T) {
	store, err := artifact.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	key, err := store.Put("u1/intro.pdf", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if key != "u1/intro.pdf" {
		t.Errorf("key = %q", key)
	}

	rc, err := store.Get("u1/intro.pdf")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}
}

func TestFSStore_EmptyKey(t *testing.T) {
	store, err := artifact.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}
	if _, err := store.Put("", strings.NewReader("x")); err == nil {
		t.Error("Put() should reject an empty key")
	}
}

func TestFSStore_GetMissing(t *testing.T) {
	store, err := artifact.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}
	if _, err := store.Get("nope"); err == nil {
		t.Error("Get() should fail for a missing key")
	}
}

func TestFSStore_ContentRef(t *testing.T) {
	store, err := artifact.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	ref, err := store.ContentRef("u1/intro.pdf")
	if err != nil {
		t.Fatalf("ContentRef() error = %v", err)
	}
	if !strings.HasPrefix(ref, "file://") {
		t.Errorf("ref = %q, want a file:// URL", ref)
	}
	if !strings.HasSuffix(ref, "/u1/intro.pdf") {
		t.Errorf("ref = %q, want key suffix", ref)
	}
}
