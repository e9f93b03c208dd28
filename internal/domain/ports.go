package domain

import (
	"context"
	"time"
)

// DatabaseRepository is the Namespace Registry port (metastore-backed).
type DatabaseRepository interface {
	Create(ctx context.Context, name, owner string) (*Database, error)
	// DeleteOwned removes the (name, owner) row. Absent rows are a silent no-op.
	DeleteOwned(ctx context.Context, name, owner string) error
	ListByOwner(ctx context.Context, owner string) ([]Database, error)
	Exists(ctx context.Context, name string) (bool, error)
	ExistsOwned(ctx context.Context, name, owner string) (bool, error)
	// OwnsPrefix reports whether some database owned by owner has a name n
	// such that collection starts with n + "_".
	OwnsPrefix(ctx context.Context, owner, collection string) (bool, error)
	// ForCollection resolves the database owning the given collection name.
	ForCollection(ctx context.Context, collection string) (*Database, error)
}

// PrincipalRepository manages registered principals (metastore-backed).
type PrincipalRepository interface {
	Create(ctx context.Context, p *Principal) (*Principal, error)
	GetByName(ctx context.Context, name string) (*Principal, error)
	Delete(ctx context.Context, name string) error
	SetAdmin(ctx context.Context, name string, isAdmin bool) error
}

// GrantRepository is the explicit authorization substrate: capabilities
// granted on collections to principals, recorded in the metastore.
type GrantRepository interface {
	// GrantPair records both capabilities in one transaction; a partial grant
	// (table only, sequence only) must never be observable.
	GrantPair(ctx context.Context, collection, grantee string) error
	RevokePair(ctx context.Context, collection, grantee string) error
	Check(ctx context.Context, collection, grantee, capability string) (bool, error)
	ListForCollections(ctx context.Context, collections []string) ([]CollectionGrant, error)
	// Rename follows a collection rename so grants keep addressing the table.
	Rename(ctx context.Context, oldName, newName string) error
	DeleteForCollection(ctx context.Context, collection string) error
}

// AccessChecker answers whether a grantee may exercise a capability on a
// collection, through ownership, a direct grant, or a publish to everyone.
type AccessChecker interface {
	Check(ctx context.Context, collection, grantee, capability string) (bool, error)
}

// CRSRepository registers the coordinate reference system of each collection's
// geometry column (the data plane's geometry type is not SRID-typed).
type CRSRepository interface {
	Set(ctx context.Context, collection string, srid int) error
	Get(ctx context.Context, collection string) (int, error)
	Rename(ctx context.Context, oldName, newName string) error
	Delete(ctx context.Context, collection string) error
}

// SizeLogRepository appends relation-size audit snapshots. Rows are never
// mutated or deleted by the core.
type SizeLogRepository interface {
	Append(ctx context.Context, at time.Time, sizes []RelationSize) error
}

// DataPlane abstracts the spatial storage engine (DuckDB with the spatial
// extension). All DDL/DML against collections goes through it.
type DataPlane interface {
	Exec(ctx context.Context, query string, args ...any) error
	// QueryJSON runs a read query and returns the rows as a JSON array plus
	// the row count. An empty match returns ([]byte("[]"), 0, nil); callers
	// own the empty-result contract.
	QueryJSON(ctx context.Context, query string, args ...any) ([]byte, int, error)
	TableExists(ctx context.Context, name string) (bool, error)
	SequenceExists(ctx context.Context, name string) (bool, error)
	Columns(ctx context.Context, table string) ([]ColumnInfo, error)
	// ListTables returns user tables whose name starts with prefix, sorted.
	ListTables(ctx context.Context, prefix string) ([]string, error)
	// MaxID returns the largest id in a collection, 0 when empty.
	MaxID(ctx context.Context, table string) (int64, error)
	// TableSizes returns size snapshots for every user table whose name
	// starts with prefix (empty prefix means all user tables).
	TableSizes(ctx context.Context, prefix string) ([]RelationSize, error)
}
