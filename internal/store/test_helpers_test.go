package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wikidb/internal/catalog"
)

// testDSN returns a file-backed SQLite DSN inside a per-test temp dir.
func testDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "wiki.db") + "?_busy_timeout=5000&_journal_mode=WAL"
}

// createTestStore opens a store with the built-in catalog and an ensured schema.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	queries, err := catalog.Load("")
	require.NoError(t, err)

	s, err := Open(context.Background(), Options{
		URL:         testDSN(t),
		MaxPoolSize: 4,
		Catalog:     queries,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}
