package service

import (
	"context"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolake/internal/db"
	"geolake/internal/db/repository"
	"geolake/internal/domain"
)

func newProvisioningService(t *testing.T) (*ProvisioningService, *repository.DatabaseRepo) {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	principalRepo := repository.NewPrincipalRepo(writeDB)
	dbRepo := repository.NewDatabaseRepo(writeDB)
	return NewProvisioningService(principalRepo, dbRepo, slog.Default()), dbRepo
}

func TestRegisterUser(t *testing.T) {
	svc, dbRepo := newProvisioningService(t)

	require.NoError(t, svc.RegisterUser(adminCtx("root"), "alice", "secret"))

	exists, err := svc.UserExists(adminCtx("root"), "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	// The default database is named after the principal and owned by it.
	owned, err := dbRepo.ExistsOwned(context.Background(), "alice", "alice")
	require.NoError(t, err)
	assert.True(t, owned)
}

func TestRegisterUserIdempotent(t *testing.T) {
	svc, dbRepo := newProvisioningService(t)

	require.NoError(t, svc.RegisterUser(adminCtx("root"), "alice", "secret"))
	require.NoError(t, svc.RegisterUser(adminCtx("root"), "alice", "secret"))

	dbs, err := dbRepo.ListByOwner(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, dbs, 1)
}

func TestRegisterUserRequiresAdmin(t *testing.T) {
	svc, _ := newProvisioningService(t)

	err := svc.RegisterUser(identityCtx("alice"), "bob", "secret")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
}

func TestDropUser(t *testing.T) {
	svc, _ := newProvisioningService(t)

	require.NoError(t, svc.RegisterUser(adminCtx("root"), "alice", "secret"))
	require.NoError(t, svc.DropUser(adminCtx("root"), "alice"))

	exists, err := svc.UserExists(adminCtx("root"), "alice")
	require.NoError(t, err)
	assert.False(t, exists)

	// Dropping an unknown principal is an error.
	err = svc.DropUser(adminCtx("root"), "ghost")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCheckUser(t *testing.T) {
	svc, _ := newProvisioningService(t)

	var denied *domain.AccessDeniedError
	require.ErrorAs(t, svc.CheckUser(context.Background()), &denied)
	require.ErrorAs(t, svc.CheckUser(identityCtx(domain.AnonymousName)), &denied)
	require.NoError(t, svc.CheckUser(identityCtx("alice")))
}

func TestCheckUserGrants(t *testing.T) {
	svc, _ := newProvisioningService(t)

	ctx := domain.WithIdentity(context.Background(), domain.Identity{
		Name:  "alice",
		Scope: "read:collections write:own-collections",
	})

	// Plain substring containment over the scope string as issued. A missing
	// grant is an access failure, not a negative answer.
	tests := []struct {
		wanted  string
		granted bool
	}{
		{wanted: "read:collections", granted: true},
		{wanted: "write", granted: true},
		{wanted: "collections", granted: true},
		{wanted: "delete", granted: false},
	}
	var denied *domain.AccessDeniedError
	for _, tt := range tests {
		err := svc.CheckUserGrants(ctx, tt.wanted)
		if tt.granted {
			require.NoError(t, err, tt.wanted)
		} else {
			require.ErrorAs(t, err, &denied, tt.wanted)
		}
	}

	require.ErrorAs(t, svc.CheckUserGrants(context.Background(), "read"), &denied)
}

func TestGrantUserAdmin(t *testing.T) {
	svc, _ := newProvisioningService(t)

	require.NoError(t, svc.RegisterUser(adminCtx("root"), "alice", "secret"))
	require.NoError(t, svc.GrantUserAdmin(adminCtx("root"), "alice"))

	err := svc.GrantUserAdmin(adminCtx("root"), "ghost")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
}
