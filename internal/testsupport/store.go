package testsupport

import (
	"testing"

	"cardvault/internal/blobstore"
	"cardvault/internal/config"
	"cardvault/internal/indexstore"
	"cardvault/internal/logging"
)

// MustOpenIndex opens the configured index store and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) indexstore.Store {
	t.Helper()

	store, err := indexstore.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("indexstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustOpenBlobs opens the configured blob backend.
func MustOpenBlobs(t testing.TB, cfg *config.Config) blobstore.Backend {
	t.Helper()

	blobs, err := blobstore.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("blobstore.Open: %v", err)
	}
	return blobs
}
