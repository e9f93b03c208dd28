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

type accessFixture struct {
	svc  *AccessService
	data *mockDataPlane
}

func newAccessFixture(t *testing.T) *accessFixture {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)

	dbRepo := repository.NewDatabaseRepo(writeDB)
	grantRepo := repository.NewGrantRepo(writeDB)
	data := newMockDataPlane()

	for _, owner := range []string{"alice", "bob"} {
		_, err := dbRepo.Create(context.Background(), owner, owner)
		require.NoError(t, err)
	}

	return &accessFixture{
		svc:  NewAccessService(grantRepo, dbRepo, data),
		data: data,
	}
}

func TestGrantAccessRequiresSequence(t *testing.T) {
	f := newAccessFixture(t)

	err := f.svc.GrantAccessToCollection(identityCtx("alice"), "alice_land", "bob")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestGrantAndRevokeAccess(t *testing.T) {
	f := newAccessFixture(t)
	f.data.sequences["alice_land_id_seq"] = true

	require.NoError(t, f.svc.GrantAccessToCollection(identityCtx("alice"), "alice_land", "bob"))

	// Both capabilities travel together.
	for _, cap := range []string{domain.CapRead, domain.CapSequenceUsage} {
		ok, err := f.svc.Check(context.Background(), "alice_land", "bob", cap)
		require.NoError(t, err)
		assert.True(t, ok, cap)
	}

	require.NoError(t, f.svc.RevokeAccessFromCollection(identityCtx("alice"), "alice_land", "bob"))
	ok, err := f.svc.Check(context.Background(), "alice_land", "bob", domain.CapRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantAccessOwnerOnly(t *testing.T) {
	f := newAccessFixture(t)
	f.data.sequences["alice_land_id_seq"] = true

	// A non-owner cannot grant themselves access.
	var denied *domain.AccessDeniedError
	err := f.svc.GrantAccessToCollection(identityCtx("bob"), "alice_land", "bob")
	require.ErrorAs(t, err, &denied)

	ok, err := f.svc.Check(context.Background(), "alice_land", "bob", domain.CapRead)
	require.NoError(t, err)
	assert.False(t, ok, "denied grant must leave no capability behind")

	// Nor can anyone but the owner revoke an existing grant.
	require.NoError(t, f.svc.GrantAccessToCollection(identityCtx("alice"), "alice_land", "bob"))
	err = f.svc.RevokeAccessFromCollection(context.Background(), "alice_land", "bob")
	require.ErrorAs(t, err, &denied)

	ok, err = f.svc.Check(context.Background(), "alice_land", "bob", domain.CapRead)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantAccessIdempotent(t *testing.T) {
	f := newAccessFixture(t)
	f.data.sequences["alice_land_id_seq"] = true

	require.NoError(t, f.svc.GrantAccessToCollection(identityCtx("alice"), "alice_land", "bob"))
	require.NoError(t, f.svc.GrantAccessToCollection(identityCtx("alice"), "alice_land", "bob"))

	grants, err := f.svc.ListGrants(identityCtx("alice"))
	require.NoError(t, err)
	assert.Nil(t, grants) // no tables listed on the mock data plane

	f.data.tableList = []string{"alice_land"}
	grants, err = f.svc.ListGrants(identityCtx("alice"))
	require.NoError(t, err)
	assert.Len(t, grants, 2)
}

func TestPublishCollection(t *testing.T) {
	f := newAccessFixture(t)
	f.data.sequences["alice_land_id_seq"] = true

	// Only the owner of the collection's prefix may publish.
	err := f.svc.PublishCollection(identityCtx("bob"), "alice_land")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	require.NoError(t, f.svc.PublishCollection(identityCtx("alice"), "alice_land"))

	// A published collection is readable by anyone.
	ok, err := f.svc.Check(context.Background(), "alice_land", "carol", domain.CapRead)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.svc.UnpublishCollection(identityCtx("alice"), "alice_land"))
	ok, err = f.svc.Check(context.Background(), "alice_land", "carol", domain.CapRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckOwnerAlwaysAllowed(t *testing.T) {
	f := newAccessFixture(t)

	ok, err := f.svc.Check(context.Background(), "alice_land", "alice", domain.CapRead)
	require.NoError(t, err)
	assert.True(t, ok)
}
