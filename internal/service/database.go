// Package service implements the platform operations over the domain ports.
package service

import (
	"context"

	"geolake/internal/ddl"
	"geolake/internal/domain"
)

// DatabaseService is the Namespace Registry: it maintains (name, owner)
// pairs and answers the ownership questions every other component relies on.
// Nothing is cached; each decision re-reads the registry.
type DatabaseService struct {
	databases domain.DatabaseRepository
}

func NewDatabaseService(databases domain.DatabaseRepository) *DatabaseService {
	return &DatabaseService{databases: databases}
}

// CreateDatabase registers a database owned by the caller. A name already
// registered by any owner is a conflict.
func (s *DatabaseService) CreateDatabase(ctx context.Context, name string) (*domain.Database, error) {
	id := domain.IdentityFromContext(ctx)
	if id.IsAnonymous() {
		return nil, domain.ErrAccessDenied("anonymous callers cannot create databases")
	}
	if err := ddl.ValidateIdentifier(name); err != nil {
		return nil, domain.ErrValidation("invalid database name: %v", err)
	}

	exists, err := s.databases.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrConflict("database %q already exists", name)
	}
	return s.databases.Create(ctx, name, id.Name)
}

// TruncateDatabase removes the caller's registration of name. Removing a
// name the caller does not own, or one that does not exist, is a silent
// no-op by contract.
func (s *DatabaseService) TruncateDatabase(ctx context.Context, name string) error {
	id := domain.IdentityFromContext(ctx)
	return s.databases.DeleteOwned(ctx, name, id.Name)
}

// ListDatabases returns the databases owned by the caller, ordered by name.
func (s *DatabaseService) ListDatabases(ctx context.Context) ([]domain.Database, error) {
	id := domain.IdentityFromContext(ctx)
	return s.databases.ListByOwner(ctx, id.Name)
}

// DatabaseExists reports whether any owner has registered the name.
func (s *DatabaseService) DatabaseExists(ctx context.Context, name string) (bool, error) {
	return s.databases.Exists(ctx, name)
}

// UserAllowed is the single authorization primitive: true iff some database
// owned by principal has a name n such that collection starts with n + "_".
func (s *DatabaseService) UserAllowed(ctx context.Context, collection, principal string) (bool, error) {
	return s.databases.OwnsPrefix(ctx, principal, collection)
}
