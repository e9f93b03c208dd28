package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a migrated throwaway metastore under t.TempDir() and
// returns its write and read pools. Cleanup closes both. Tests that do not
// care about the pool split can use writeDB for everything.
func OpenTestSQLite(t *testing.T) (writeDB, readDB *sql.DB) {
	t.Helper()

	store, err := OpenMetastore(filepath.Join(t.TempDir(), "meta.sqlite"), 2)
	if err != nil {
		t.Fatalf("open test metastore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := RunMigrations(store.Write); err != nil {
		t.Fatalf("migrate test metastore: %v", err)
	}

	return store.Write, store.Read
}
