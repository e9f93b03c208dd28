package service

import (
	"context"

	"geolake/internal/ddl"
	"geolake/internal/domain"
)

// AccessService grants and revokes read access to collections. Grants are
// recorded in the metastore as (collection, grantee, capability) rows; the
// table-read and identity-sequence capabilities always travel together.
type AccessService struct {
	grants    domain.GrantRepository
	databases domain.DatabaseRepository
	data      domain.DataPlane
}

func NewAccessService(grants domain.GrantRepository, databases domain.DatabaseRepository, data domain.DataPlane) *AccessService {
	return &AccessService{grants: grants, databases: databases, data: data}
}

// GrantAccessToCollection grants principal read access to the collection's
// table and usage of its identity sequence, as one unit. Only the owner of
// the collection's prefix may grant, and a collection with no identity
// sequence cannot be granted.
func (s *AccessService) GrantAccessToCollection(ctx context.Context, collection, principal string) error {
	if err := s.authorize(ctx, collection); err != nil {
		return err
	}
	if err := s.resolveSequence(ctx, collection); err != nil {
		return err
	}
	return s.grants.GrantPair(ctx, collection, principal)
}

// RevokeAccessFromCollection removes the same pair of capabilities, under the
// same owner-only gate.
func (s *AccessService) RevokeAccessFromCollection(ctx context.Context, collection, principal string) error {
	if err := s.authorize(ctx, collection); err != nil {
		return err
	}
	if err := s.resolveSequence(ctx, collection); err != nil {
		return err
	}
	return s.grants.RevokePair(ctx, collection, principal)
}

// PublishCollection grants read access to everyone. The authorization check
// runs against the collection name the same way rename and copy check their
// destination name.
func (s *AccessService) PublishCollection(ctx context.Context, collection string) error {
	return s.GrantAccessToCollection(ctx, collection, domain.PublicGrantee)
}

// UnpublishCollection revokes read access from everyone.
func (s *AccessService) UnpublishCollection(ctx context.Context, collection string) error {
	return s.RevokeAccessFromCollection(ctx, collection, domain.PublicGrantee)
}

// Check reports whether grantee holds capability on the collection, either
// directly or through a publish to everyone. Collection owners are always
// allowed.
func (s *AccessService) Check(ctx context.Context, collection, grantee, capability string) (bool, error) {
	owns, err := s.databases.OwnsPrefix(ctx, grantee, collection)
	if err != nil {
		return false, err
	}
	if owns {
		return true, nil
	}
	return s.grants.Check(ctx, collection, grantee, capability)
}

// ListGrants returns the grants issued on the caller's collections.
func (s *AccessService) ListGrants(ctx context.Context) ([]domain.CollectionGrant, error) {
	id := domain.IdentityFromContext(ctx)

	databases, err := s.databases.ListByOwner(ctx, id.Name)
	if err != nil {
		return nil, err
	}

	var collections []string
	for _, d := range databases {
		tables, err := s.data.ListTables(ctx, d.Name+domain.CollectionSeparator)
		if err != nil {
			return nil, err
		}
		collections = append(collections, tables...)
	}
	return s.grants.ListForCollections(ctx, collections)
}

// resolveSequence fails with Not-Found when the collection has no identity
// sequence, before any capability changes hands.
func (s *AccessService) resolveSequence(ctx context.Context, collection string) error {
	ok, err := s.data.SequenceExists(ctx, ddl.SequenceName(collection))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound("no identity sequence found for collection %q", collection)
	}
	return nil
}

func (s *AccessService) authorize(ctx context.Context, collection string) error {
	id := domain.IdentityFromContext(ctx)
	allowed, err := s.databases.OwnsPrefix(ctx, id.Name, collection)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrAccessDenied("%s has no access to collection %s", id.Name, collection)
	}
	return nil
}
