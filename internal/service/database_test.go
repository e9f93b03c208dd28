package service

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolake/internal/db"
	"geolake/internal/db/repository"
	"geolake/internal/domain"
)

func newDatabaseService(t *testing.T) (*DatabaseService, *repository.DatabaseRepo) {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	repo := repository.NewDatabaseRepo(writeDB)
	return NewDatabaseService(repo), repo
}

func TestCreateDatabase(t *testing.T) {
	svc, _ := newDatabaseService(t)

	created, err := svc.CreateDatabase(identityCtx("alice"), "alice_proj")
	require.NoError(t, err)
	assert.Equal(t, "alice_proj", created.Name)
	assert.Equal(t, "alice", created.Owner)
}

func TestCreateDatabaseDuplicateIsConflictRegardlessOfOwner(t *testing.T) {
	svc, _ := newDatabaseService(t)

	_, err := svc.CreateDatabase(identityCtx("alice"), "shared")
	require.NoError(t, err)

	_, err = svc.CreateDatabase(identityCtx("bob"), "shared")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCreateDatabaseAnonymousDenied(t *testing.T) {
	svc, _ := newDatabaseService(t)

	_, err := svc.CreateDatabase(context.Background(), "orphan")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
}

func TestCreateDatabaseInvalidName(t *testing.T) {
	svc, _ := newDatabaseService(t)

	_, err := svc.CreateDatabase(identityCtx("alice"), "bad name")
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestTruncateDatabaseSilentForNonOwned(t *testing.T) {
	svc, _ := newDatabaseService(t)

	_, err := svc.CreateDatabase(identityCtx("alice"), "alice")
	require.NoError(t, err)

	// Bob removing Alice's database is a no-op, not an error.
	require.NoError(t, svc.TruncateDatabase(identityCtx("bob"), "alice"))
	exists, err := svc.DatabaseExists(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	// Removing a name that was never registered is also silent.
	require.NoError(t, svc.TruncateDatabase(identityCtx("bob"), "ghost"))

	// The owner's truncate actually removes the row.
	require.NoError(t, svc.TruncateDatabase(identityCtx("alice"), "alice"))
	exists, err = svc.DatabaseExists(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListDatabasesOrderedByName(t *testing.T) {
	svc, _ := newDatabaseService(t)

	for _, name := range []string{"alice_z", "alice_a", "alice_m"} {
		_, err := svc.CreateDatabase(identityCtx("alice"), name)
		require.NoError(t, err)
	}
	_, err := svc.CreateDatabase(identityCtx("bob"), "bob_db")
	require.NoError(t, err)

	dbs, err := svc.ListDatabases(identityCtx("alice"))
	require.NoError(t, err)
	require.Len(t, dbs, 3)
	assert.Equal(t, "alice_a", dbs[0].Name)
	assert.Equal(t, "alice_m", dbs[1].Name)
	assert.Equal(t, "alice_z", dbs[2].Name)
}

func TestUserAllowed(t *testing.T) {
	svc, _ := newDatabaseService(t)

	_, err := svc.CreateDatabase(identityCtx("alice"), "alice")
	require.NoError(t, err)

	tests := []struct {
		name       string
		collection string
		principal  string
		want       bool
	}{
		{name: "owner_with_separator", collection: "alice_land", principal: "alice", want: true},
		{name: "bare_database_name", collection: "alice", principal: "alice", want: false},
		{name: "prefix_without_separator", collection: "alicex_land", principal: "alice", want: false},
		{name: "other_principal", collection: "alice_land", principal: "bob", want: false},
		{name: "unregistered_prefix", collection: "carol_land", principal: "alice", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.UserAllowed(context.Background(), tt.collection, tt.principal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
