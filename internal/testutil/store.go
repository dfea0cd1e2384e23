// Package testutil provides shared fixtures for tests.
//
// Every store it opens lives in its own temp dir and is file-backed, so all
// pooled connections see the same database.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wikidb/internal/catalog"
	"github.com/roach88/wikidb/internal/store"
)

// TempDSN returns a SQLite DSN for a fresh database file under t.TempDir().
func TempDSN(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "wiki.db") + "?_busy_timeout=5000&_journal_mode=WAL"
}

// OpenStore opens a store with the built-in catalog and the given pool size.
// The schema is not created; dispatch.Start or EnsureSchema does that.
func OpenStore(t testing.TB, maxPoolSize int) *store.Store {
	t.Helper()

	queries, err := catalog.Load("")
	require.NoError(t, err)

	s, err := store.Open(context.Background(), store.Options{
		URL:         TempDSN(t),
		MaxPoolSize: maxPoolSize,
		Catalog:     queries,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
