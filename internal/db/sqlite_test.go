package db

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetastoreDSN(t *testing.T) {
	w := metastoreDSN("meta.sqlite", poolWrite)
	assert.Contains(t, w, "_journal_mode=WAL")
	assert.Contains(t, w, "_busy_timeout=5000")
	assert.Contains(t, w, "_txlock=immediate")

	r := metastoreDSN("meta.sqlite", poolRead)
	assert.NotContains(t, r, "_txlock", "readers must not take write locks")
}

func TestOpenMetastoreAndMigrate(t *testing.T) {
	store, err := OpenMetastore(filepath.Join(t.TempDir(), "meta.sqlite"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, RunMigrations(store.Write))

	// Both pools see the migrated schema.
	var n int
	require.NoError(t, store.Read.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM user_databases`).Scan(&n))
	assert.Equal(t, 0, n)
}
