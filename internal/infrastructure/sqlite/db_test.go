package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestNewDB_CreatesDirectory verifies that NewDB creates missing parent directories.
func TestNewDB_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "storage.db")

	db, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
}

func TestNewDB_RunsMigrations(t *testing.T) {
	db := openTestDB(t)

	var name string
	err := db.conn.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='local_storage'",
	).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "local_storage", name)

	var version int
	require.NoError(t, db.conn.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	require.Equal(t, 1, version)
}

func TestNewDB_ReopenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "storage.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, db1.LocalStorage().Set(context.Background(), "token", "abc"))
	require.NoError(t, db1.Close())

	db2, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	var applied int
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	require.Equal(t, 1, applied)

	got, ok, err := db2.LocalStorage().Get(context.Background(), "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", got)
}

// TestNewDB_PreMigrationBackup verifies that reopening an existing file leaves a .bak copy.
func TestNewDB_PreMigrationBackup(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "storage.db")

	db1, err := NewDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, db1.LocalStorage().Set(context.Background(), "token", "abc"))
	require.NoError(t, db1.Close())

	_, err = os.Stat(dbPath + ".bak")
	require.True(t, os.IsNotExist(err), "first open has nothing to back up")

	db2, err := NewDB(dbPath)
	require.NoError(t, err)
	defer db2.Close()

	info, err := os.Stat(dbPath + ".bak")
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestNewDB_Pragmas(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	require.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	require.Equal(t, busyTimeoutMillis, busyTimeout)

	var foreignKeys int
	require.NoError(t, db.conn.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	require.Equal(t, 1, foreignKeys)
}

func TestDB_CloseAndConnection(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)

	require.IsType(t, (*sql.DB)(nil), db.Connection())
	require.NoError(t, db.Connection().Ping())

	require.NoError(t, db.Close())
	require.Error(t, db.conn.Ping())
}

func TestNewDB_InvalidPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Unix-specific path test")
	}
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewDB(filepath.Join(blocker, "storage.db"))
	require.Error(t, err)
}

func TestLocalStorage_GetSetRemove(t *testing.T) {
	ls := openTestDB(t).LocalStorage()
	ctx := context.Background()

	_, ok, err := ls.Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, ls.Set(ctx, "token", "first"))
	require.NoError(t, ls.Set(ctx, "token", "second"))

	got, ok, err := ls.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "second", got)

	require.NoError(t, ls.Remove(ctx, "token"))
	require.NoError(t, ls.Remove(ctx, "token"))
	_, ok, err = ls.Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalStorage_SharedBetweenConnections(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "storage.db")
	a, err := NewDB(dbPath)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewDB(dbPath)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, a.LocalStorage().Set(ctx, "token", "abc"))

	got, ok, err := b.LocalStorage().Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "abc", got)

	require.NoError(t, b.LocalStorage().Remove(ctx, "token"))
	_, ok, err = a.LocalStorage().Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalStorage_ConcurrentWriters(t *testing.T) {
	ls := openTestDB(t).LocalStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, ls.Set(ctx, "token", "v"))
		}()
	}
	wg.Wait()

	got, ok, err := ls.Get(ctx, "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", got)
}
