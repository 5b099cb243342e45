package cache

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStoreAndLookupRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "cache.sqlite"))
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	defer store.Close()

	if err := store.Store(ctx, "main/identity", "abc123", "(a) -> a"); err != nil {
		t.Fatalf("store: %s", err)
	}

	sig, ok, err := store.Lookup(ctx, "main/identity", "abc123")
	if err != nil {
		t.Fatalf("lookup: %s", err)
	}
	if !ok {
		t.Fatalf("expected a cache hit")
	}
	if sig != "(a) -> a" {
		t.Errorf("expected signature %q, got %q", "(a) -> a", sig)
	}
}

func TestLookupMissReturnsFalse(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "cache.sqlite"))
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	defer store.Close()

	_, ok, err := store.Lookup(ctx, "main/nope", "zzz")
	if err != nil {
		t.Fatalf("lookup: %s", err)
	}
	if ok {
		t.Errorf("expected a cache miss")
	}
}

func TestStoreOverwritesExistingEntry(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "cache.sqlite"))
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	defer store.Close()

	if err := store.Store(ctx, "main/identity", "abc123", "(a) -> a"); err != nil {
		t.Fatalf("first store: %s", err)
	}
	if err := store.Store(ctx, "main/identity", "abc123", "(b) -> b"); err != nil {
		t.Fatalf("second store: %s", err)
	}

	sig, ok, err := store.Lookup(ctx, "main/identity", "abc123")
	if err != nil {
		t.Fatalf("lookup: %s", err)
	}
	if !ok || sig != "(b) -> b" {
		t.Errorf("expected overwritten signature %q, got %q (ok=%v)", "(b) -> b", sig, ok)
	}
}
