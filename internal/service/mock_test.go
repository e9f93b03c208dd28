package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"geolake/internal/domain"
)

// mockDataPlane records executed statements and serves canned catalog state.
// Setting failOn makes Exec fail for any statement containing that substring.
type mockDataPlane struct {
	stmts     []string
	args      [][]any
	tables    map[string]bool
	sequences map[string]bool
	columns   []domain.ColumnInfo
	sizes     []domain.RelationSize
	tableList []string
	maxID     int64
	failOn    string
}

func newMockDataPlane() *mockDataPlane {
	return &mockDataPlane{
		tables:    map[string]bool{},
		sequences: map[string]bool{},
	}
}

func (m *mockDataPlane) Exec(_ context.Context, query string, args ...any) error {
	if m.failOn != "" && strings.Contains(query, m.failOn) {
		return fmt.Errorf("simulated failure executing %q", query)
	}
	m.stmts = append(m.stmts, query)
	m.args = append(m.args, args)
	return nil
}

func (m *mockDataPlane) QueryJSON(context.Context, string, ...any) ([]byte, int, error) {
	return []byte(`[]`), 0, nil
}

func (m *mockDataPlane) TableExists(_ context.Context, name string) (bool, error) {
	return m.tables[name], nil
}

func (m *mockDataPlane) SequenceExists(_ context.Context, name string) (bool, error) {
	return m.sequences[name], nil
}

func (m *mockDataPlane) Columns(_ context.Context, table string) ([]domain.ColumnInfo, error) {
	if len(m.columns) == 0 {
		return nil, domain.ErrNotFound("collection %q does not exist", table)
	}
	return m.columns, nil
}

func (m *mockDataPlane) ListTables(context.Context, string) ([]string, error) {
	return m.tableList, nil
}

func (m *mockDataPlane) MaxID(context.Context, string) (int64, error) {
	return m.maxID, nil
}

func (m *mockDataPlane) TableSizes(context.Context, string) ([]domain.RelationSize, error) {
	return m.sizes, nil
}

// mockSizeLog captures appended snapshots.
type mockSizeLog struct {
	appended [][]domain.RelationSize
}

func (m *mockSizeLog) Append(_ context.Context, _ time.Time, sizes []domain.RelationSize) error {
	m.appended = append(m.appended, sizes)
	return nil
}

// identityCtx builds a context carrying the given caller.
func identityCtx(name string) context.Context {
	return domain.WithIdentity(context.Background(), domain.Identity{Name: name})
}

func adminCtx(name string) context.Context {
	return domain.WithIdentity(context.Background(), domain.Identity{Name: name, IsAdmin: true})
}
