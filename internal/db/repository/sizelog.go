package repository

import (
	"context"
	"database/sql"
	"time"

	"geolake/internal/domain"
)

// SizeLogRepo appends relation-size audit snapshots to the metastore.
type SizeLogRepo struct {
	db *sql.DB
}

var _ domain.SizeLogRepository = (*SizeLogRepo)(nil)

func NewSizeLogRepo(db *sql.DB) *SizeLogRepo {
	return &SizeLogRepo{db: db}
}

// Append writes one row per relation, all stamped with the same time.
func (r *SizeLogRepo) Append(ctx context.Context, at time.Time, sizes []domain.RelationSize) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, s := range sizes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO size_log (relation, row_estimate, total_bytes, logged_at) VALUES (?, ?, ?, ?)`,
			s.Name, s.RowEstimate, s.TotalBytes, at.UTC()); err != nil {
			return err
		}
	}
	return tx.Commit()
}
