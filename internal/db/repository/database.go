package repository

import (
	"context"
	"database/sql"
	"errors"

	"geolake/internal/domain"
)

// DatabaseRepo is the SQLite-backed Namespace Registry.
type DatabaseRepo struct {
	db *sql.DB
}

var _ domain.DatabaseRepository = (*DatabaseRepo)(nil)

func NewDatabaseRepo(db *sql.DB) *DatabaseRepo {
	return &DatabaseRepo{db: db}
}

func (r *DatabaseRepo) Create(ctx context.Context, name, owner string) (*domain.Database, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO user_databases (name, owner) VALUES (?, ?)
		 RETURNING id, name, owner, created_at`, name, owner)

	var d domain.Database
	if err := row.Scan(&d.ID, &d.Name, &d.Owner, &d.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	return &d, nil
}

// DeleteOwned removes the (name, owner) row. Deleting a name the caller does
// not own, or a name that does not exist, is a silent no-op.
func (r *DatabaseRepo) DeleteOwned(ctx context.Context, name, owner string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_databases WHERE name = ? AND owner = ?`, name, owner)
	return err
}

func (r *DatabaseRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Database, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, owner, created_at FROM user_databases
		 WHERE owner = ? ORDER BY name`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dbs []domain.Database
	for rows.Next() {
		var d domain.Database
		if err := rows.Scan(&d.ID, &d.Name, &d.Owner, &d.CreatedAt); err != nil {
			return nil, err
		}
		dbs = append(dbs, d)
	}
	return dbs, rows.Err()
}

func (r *DatabaseRepo) Exists(ctx context.Context, name string) (bool, error) {
	var cnt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_databases WHERE name = ?`, name).Scan(&cnt)
	return cnt > 0, err
}

func (r *DatabaseRepo) ExistsOwned(ctx context.Context, name, owner string) (bool, error) {
	var cnt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_databases WHERE name = ? AND owner = ?`, name, owner).Scan(&cnt)
	return cnt > 0, err
}

// OwnsPrefix reports whether some database owned by owner has a name n such
// that collection starts with n + "_". The comparison is a literal prefix
// match, not a LIKE pattern.
func (r *DatabaseRepo) OwnsPrefix(ctx context.Context, owner, collection string) (bool, error) {
	var cnt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_databases
		 WHERE owner = ? AND substr(?, 1, length(name) + 1) = name || '_'`,
		owner, collection).Scan(&cnt)
	return cnt > 0, err
}

// ForCollection resolves the database owning the collection. The longest
// matching prefix wins when database names nest.
func (r *DatabaseRepo) ForCollection(ctx context.Context, collection string) (*domain.Database, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, owner, created_at FROM user_databases
		 WHERE substr(?, 1, length(name) + 1) = name || '_'
		 ORDER BY length(name) DESC LIMIT 1`, collection)

	var d domain.Database
	if err := row.Scan(&d.ID, &d.Name, &d.Owner, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound("no database registered for collection %q", collection)
		}
		return nil, err
	}
	return &d, nil
}
