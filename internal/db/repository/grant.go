package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"geolake/internal/domain"
)

// GrantRepo records collection capabilities in the metastore. It is the
// explicit authorization substrate replacing engine-native GRANT/REVOKE.
type GrantRepo struct {
	db *sql.DB
}

var _ domain.GrantRepository = (*GrantRepo)(nil)

func NewGrantRepo(db *sql.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

// GrantPair records the table-read and sequence-usage capabilities in one
// transaction. A partial grant must never be observable.
func (r *GrantRepo) GrantPair(ctx context.Context, collection, grantee string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, cap := range []string{domain.CapRead, domain.CapSequenceUsage} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collection_grants (collection, grantee, capability) VALUES (?, ?, ?)
			 ON CONFLICT (collection, grantee, capability) DO NOTHING`,
			collection, grantee, cap); err != nil {
			return fmt.Errorf("grant %s on %q to %q: %w", cap, collection, grantee, err)
		}
	}
	return tx.Commit()
}

// RevokePair removes both capabilities in one transaction.
func (r *GrantRepo) RevokePair(ctx context.Context, collection, grantee string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, cap := range []string{domain.CapRead, domain.CapSequenceUsage} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM collection_grants WHERE collection = ? AND grantee = ? AND capability = ?`,
			collection, grantee, cap); err != nil {
			return fmt.Errorf("revoke %s on %q from %q: %w", cap, collection, grantee, err)
		}
	}
	return tx.Commit()
}

// Check reports whether grantee holds the capability on the collection,
// either directly or through a grant to everyone.
func (r *GrantRepo) Check(ctx context.Context, collection, grantee, capability string) (bool, error) {
	var cnt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collection_grants
		 WHERE collection = ? AND capability = ? AND grantee IN (?, ?)`,
		collection, capability, grantee, domain.PublicGrantee).Scan(&cnt)
	return cnt > 0, err
}

func (r *GrantRepo) ListForCollections(ctx context.Context, collections []string) ([]domain.CollectionGrant, error) {
	if len(collections) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(collections)), ",")
	args := make([]any, len(collections))
	for i, c := range collections {
		args[i] = c
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, collection, grantee, capability, granted_at FROM collection_grants
		 WHERE collection IN (`+placeholders+`) ORDER BY collection, grantee, capability`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []domain.CollectionGrant
	for rows.Next() {
		var g domain.CollectionGrant
		if err := rows.Scan(&g.ID, &g.Collection, &g.Grantee, &g.Capability, &g.GrantedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// Rename re-points grants at a renamed collection.
func (r *GrantRepo) Rename(ctx context.Context, oldName, newName string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE collection_grants SET collection = ? WHERE collection = ?`, newName, oldName)
	return err
}

func (r *GrantRepo) DeleteForCollection(ctx context.Context, collection string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM collection_grants WHERE collection = ?`, collection)
	return err
}
