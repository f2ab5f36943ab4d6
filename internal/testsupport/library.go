package testsupport

import (
	"context"
	"testing"

	"slib/internal/config"
	"slib/internal/library"
)

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustScan scans the configured music directory and fails the test on error.
func MustScan(t testing.TB, store *library.Store, cfg *config.Config) library.ScanResult {
	t.Helper()

	result, err := store.Scan(context.Background(), library.ScanOptions{
		Root:       cfg.Paths.MusicDir,
		Extensions: cfg.Library.AudioExtensions,
	})
	if err != nil {
		t.Fatalf("store.Scan: %v", err)
	}
	return result
}
