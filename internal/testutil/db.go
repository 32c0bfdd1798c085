// Package testutil builds the backing services the screens need in tests:
// a mock REST API, the registry store on top of it, the postal resolver and
// a session manager over a throwaway storage database.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clientflow/clientflow/internal/infrastructure/sqlite"
)

// NewTestDB opens a migrated storage database in a temp dir. It is closed
// when the test ends.
func NewTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
