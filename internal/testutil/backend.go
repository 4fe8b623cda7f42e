package testutil

import (
	"path/filepath"
	"testing"

	"github.com/iwaseano/yoga-reserve/internal/mockapi"
)

// Secret signs mock-issued tokens and session cookies in tests.
const Secret = "test-secret-key"

// NewBackend creates an isolated mock backend with simulated latency
// disabled.
func NewBackend(t *testing.T) *mockapi.Backend {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "mock.db")
	backend, err := mockapi.New(dsn, Secret, mockapi.WithLatency(0, 0))
	if err != nil {
		t.Fatalf("create mock backend: %v", err)
	}
	t.Cleanup(func() {
		_ = backend.Close()
	})

	return backend
}
