package repository

import (
	"context"
	"database/sql"

	"geolake/internal/domain"
)

// PrincipalRepo manages registered principals in the metastore.
type PrincipalRepo struct {
	db *sql.DB
}

var _ domain.PrincipalRepository = (*PrincipalRepo)(nil)

func NewPrincipalRepo(db *sql.DB) *PrincipalRepo {
	return &PrincipalRepo{db: db}
}

func (r *PrincipalRepo) Create(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	role := p.Role
	if role == "" {
		role = domain.RoleAuthenticated
	}
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO principals (name, role, is_admin, password_hash) VALUES (?, ?, ?, ?)
		 RETURNING id, name, role, is_admin, password_hash, created_at`,
		p.Name, role, boolToInt(p.IsAdmin), p.PasswordHash)
	return scanPrincipal(row)
}

func (r *PrincipalRepo) GetByName(ctx context.Context, name string) (*domain.Principal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, role, is_admin, password_hash, created_at
		 FROM principals WHERE name = ?`, name)
	return scanPrincipal(row)
}

func (r *PrincipalRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM principals WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("principal %q not found", name)
	}
	return nil
}

func (r *PrincipalRepo) SetAdmin(ctx context.Context, name string, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE principals SET is_admin = ? WHERE name = ?`, boolToInt(isAdmin), name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("principal %q not found", name)
	}
	return nil
}

func scanPrincipal(row *sql.Row) (*domain.Principal, error) {
	var p domain.Principal
	var isAdmin int64
	if err := row.Scan(&p.ID, &p.Name, &p.Role, &isAdmin, &p.PasswordHash, &p.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	p.IsAdmin = isAdmin != 0
	return &p, nil
}
