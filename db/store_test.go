package db

import (
	"bytes"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	key := []byte("dawnforge:test")
	value := []byte{0xde, 0xad, 0xbe, 0xef}
	if err := store.Put(key, value); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get = %x, want %x", got, value)
	}

	if err := store.Put(key, []byte{0x01}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err = store.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("Get after overwrite = %x, want 01", got)
	}
}

func TestStoreMissingKey(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	got, err := store.Get([]byte("absent"))
	if err != nil {
		t.Fatalf("missing key errored: %v", err)
	}
	if got != nil {
		t.Errorf("missing key = %x, want nil", got)
	}
}

func TestStoreReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	got, err := store.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("v")) {
		t.Errorf("Get after reopen = %q, want %q", got, "v")
	}
}
