package repository

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolake/internal/db"
	"geolake/internal/domain"
)

func TestDatabaseRepoCreateAndConflict(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewDatabaseRepo(writeDB)
	ctx := context.Background()

	created, err := repo.Create(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	// The name is unique across owners.
	_, err = repo.Create(ctx, "alice", "bob")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestDatabaseRepoOwnsPrefix(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewDatabaseRepo(writeDB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", "alice")
	require.NoError(t, err)
	// SQL LIKE would treat the separator as a wildcard; the match must be
	// a literal prefix comparison.
	_, err = repo.Create(ctx, "aliceX", "mallory")
	require.NoError(t, err)

	tests := []struct {
		name       string
		owner      string
		collection string
		want       bool
	}{
		{name: "match", owner: "alice", collection: "alice_land", want: true},
		{name: "no_separator", owner: "alice", collection: "aliceland", want: false},
		{name: "bare_name", owner: "alice", collection: "alice", want: false},
		{name: "wrong_owner", owner: "bob", collection: "alice_land", want: false},
		{name: "lookalike_not_matched", owner: "mallory", collection: "alice_land", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.OwnsPrefix(ctx, tt.owner, tt.collection)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseRepoForCollectionLongestPrefixWins(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewDatabaseRepo(writeDB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "alice", "alice")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "alice_eu", "alice")
	require.NoError(t, err)

	owner, err := repo.ForCollection(ctx, "alice_eu_land")
	require.NoError(t, err)
	assert.Equal(t, "alice_eu", owner.Name)

	_, err = repo.ForCollection(ctx, "unclaimed_land")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestGrantRepoPair(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewGrantRepo(writeDB)
	ctx := context.Background()

	require.NoError(t, repo.GrantPair(ctx, "alice_land", "bob"))
	// Granting twice is a no-op, not an error.
	require.NoError(t, repo.GrantPair(ctx, "alice_land", "bob"))

	grants, err := repo.ListForCollections(ctx, []string{"alice_land"})
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Equal(t, domain.CapRead, grants[0].Capability)
	assert.Equal(t, domain.CapSequenceUsage, grants[1].Capability)

	require.NoError(t, repo.RevokePair(ctx, "alice_land", "bob"))
	grants, err = repo.ListForCollections(ctx, []string{"alice_land"})
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestGrantRepoCheckIncludesPublic(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewGrantRepo(writeDB)
	ctx := context.Background()

	require.NoError(t, repo.GrantPair(ctx, "alice_land", domain.PublicGrantee))

	ok, err := repo.Check(ctx, "alice_land", "carol", domain.CapRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Check(ctx, "alice_sea", "carol", domain.CapRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantRepoRename(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewGrantRepo(writeDB)
	ctx := context.Background()

	require.NoError(t, repo.GrantPair(ctx, "alice_land", "bob"))
	require.NoError(t, repo.Rename(ctx, "alice_land", "alice_terrain"))

	ok, err := repo.Check(ctx, "alice_terrain", "bob", domain.CapRead)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCRSRepoUpsert(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewCRSRepo(writeDB)
	ctx := context.Background()

	_, err := repo.Get(ctx, "alice_land")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	require.NoError(t, repo.Set(ctx, "alice_land", 4326))
	require.NoError(t, repo.Set(ctx, "alice_land", 3035))

	srid, err := repo.Get(ctx, "alice_land")
	require.NoError(t, err)
	assert.Equal(t, 3035, srid)

	require.NoError(t, repo.Rename(ctx, "alice_land", "alice_terrain"))
	srid, err = repo.Get(ctx, "alice_terrain")
	require.NoError(t, err)
	assert.Equal(t, 3035, srid)

	require.NoError(t, repo.Delete(ctx, "alice_terrain"))
	_, err = repo.Get(ctx, "alice_terrain")
	require.ErrorAs(t, err, &nf)
}

func TestPrincipalRepo(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewPrincipalRepo(writeDB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Principal{Name: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAuthenticated, created.Role)
	assert.False(t, created.IsAdmin)

	_, err = repo.Create(ctx, &domain.Principal{Name: "alice"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	require.NoError(t, repo.SetAdmin(ctx, "alice", true))
	got, err := repo.GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)

	require.NoError(t, repo.Delete(ctx, "alice"))
	var nf *domain.NotFoundError
	require.ErrorAs(t, repo.Delete(ctx, "alice"), &nf)
	_, err = repo.GetByName(ctx, "alice")
	require.ErrorAs(t, err, &nf)
}

func TestSizeLogRepoAppend(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewSizeLogRepo(writeDB)
	ctx := context.Background()

	at := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	err := repo.Append(ctx, at, []domain.RelationSize{
		{Name: "alice_land", RowEstimate: 10, TotalBytes: 4096},
		{Name: "alice_sea", RowEstimate: 3, TotalBytes: 1024},
	})
	require.NoError(t, err)

	var cnt int64
	require.NoError(t, writeDB.QueryRow(`SELECT COUNT(*) FROM size_log`).Scan(&cnt))
	assert.EqualValues(t, 2, cnt)
}
