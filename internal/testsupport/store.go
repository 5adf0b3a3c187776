package testsupport

import (
	"testing"

	"speechcorpus/internal/config"
	"speechcorpus/internal/store"
)

// MustOpenStore opens the corpus store at cfg's store path and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg.Paths.StorePath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}
