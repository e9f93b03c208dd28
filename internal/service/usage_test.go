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

func TestGetUserUsage(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	dbRepo := repository.NewDatabaseRepo(writeDB)
	_, err := dbRepo.Create(context.Background(), "alice", "alice")
	require.NoError(t, err)

	data := newMockDataPlane()
	data.sizes = []domain.RelationSize{
		{Name: "alice_land", RowEstimate: 10, TotalBytes: 4096},
		{Name: "alice_sea", RowEstimate: 3, TotalBytes: 1024},
	}

	svc := NewUsageService(dbRepo, &mockSizeLog{}, data, slog.Default())

	usage, err := svc.GetUserUsage(identityCtx("alice"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(5120), usage.Bytes)
	assert.NotEmpty(t, usage.Pretty)

	_, err = svc.GetUserUsage(context.Background(), "")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)
}

func TestGetUserUsageForOtherPrincipal(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	dbRepo := repository.NewDatabaseRepo(writeDB)
	_, err := dbRepo.Create(context.Background(), "alice", "alice")
	require.NoError(t, err)

	data := newMockDataPlane()
	data.sizes = []domain.RelationSize{{Name: "alice_land", RowEstimate: 10, TotalBytes: 4096}}
	svc := NewUsageService(dbRepo, &mockSizeLog{}, data, slog.Default())

	// Only admins may ask about someone else.
	_, err = svc.GetUserUsage(identityCtx("bob"), "alice")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	usage, err := svc.GetUserUsage(adminCtx("root"), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), usage.Bytes)
}

func TestLogSizes(t *testing.T) {
	writeDB, _ := db.OpenTestSQLite(t)
	dbRepo := repository.NewDatabaseRepo(writeDB)

	data := newMockDataPlane()
	sink := &mockSizeLog{}
	svc := NewUsageService(dbRepo, sink, data, slog.Default())

	// Nothing to log when the data plane is empty.
	require.NoError(t, svc.LogSizes(context.Background()))
	assert.Empty(t, sink.appended)

	data.sizes = []domain.RelationSize{{Name: "alice_land", RowEstimate: 10, TotalBytes: 4096}}
	require.NoError(t, svc.LogSizes(context.Background()))
	require.Len(t, sink.appended, 1)
	assert.Equal(t, "alice_land", sink.appended[0][0].Name)
}
