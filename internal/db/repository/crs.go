package repository

import (
	"context"
	"database/sql"
	"errors"

	"geolake/internal/domain"
)

// CRSRepo registers the reference system of each collection's geometry column.
type CRSRepo struct {
	db *sql.DB
}

var _ domain.CRSRepository = (*CRSRepo)(nil)

func NewCRSRepo(db *sql.DB) *CRSRepo {
	return &CRSRepo{db: db}
}

func (r *CRSRepo) Set(ctx context.Context, collection string, srid int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO collection_crs (collection, srid) VALUES (?, ?)
		 ON CONFLICT (collection) DO UPDATE SET srid = excluded.srid`,
		collection, srid)
	return err
}

func (r *CRSRepo) Get(ctx context.Context, collection string) (int, error) {
	var srid int
	err := r.db.QueryRowContext(ctx,
		`SELECT srid FROM collection_crs WHERE collection = ?`, collection).Scan(&srid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound("no reference system registered for collection %q", collection)
	}
	return srid, err
}

func (r *CRSRepo) Rename(ctx context.Context, oldName, newName string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE collection_crs SET collection = ? WHERE collection = ?`, newName, oldName)
	return err
}

func (r *CRSRepo) Delete(ctx context.Context, collection string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM collection_crs WHERE collection = ?`, collection)
	return err
}
