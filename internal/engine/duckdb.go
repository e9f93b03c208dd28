// Package engine wraps the DuckDB data plane where collections live.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"geolake/internal/domain"
)

// DuckDB implements domain.DataPlane over a DuckDB connection with the
// spatial extension loaded.
type DuckDB struct {
	db *sql.DB
}

var _ domain.DataPlane = (*DuckDB)(nil)

// Open opens (or creates) the DuckDB database at path and installs the
// extensions the data plane needs. An empty path opens an in-memory database.
func Open(ctx context.Context, path string) (*DuckDB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	if err := InstallExtensions(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DuckDB{db: db}, nil
}

// NewDuckDB wraps an existing connection (extensions assumed loaded).
func NewDuckDB(db *sql.DB) *DuckDB {
	return &DuckDB{db: db}
}

// Close closes the underlying connection.
func (d *DuckDB) Close() error {
	return d.db.Close()
}

// InstallExtensions installs and loads the DuckDB extensions the data plane
// relies on. Safe to call repeatedly.
func InstallExtensions(ctx context.Context, db *sql.DB) error {
	extensions := []string{
		"INSTALL spatial; LOAD spatial;",
	}
	for _, ext := range extensions {
		if _, err := db.ExecContext(ctx, ext); err != nil {
			return fmt.Errorf("extension setup (%s): %w", ext, err)
		}
	}
	return nil
}

// Exec executes a statement against the data plane.
func (d *DuckDB) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

// QueryJSON runs a read query and returns the rows as a JSON array plus the
// row count. Geometry columns should already be projected to a JSON-friendly
// representation by the caller (ST_AsGeoJSON).
func (d *DuckDB) QueryJSON(ctx context.Context, query string, args ...any) ([]byte, int, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	return rowsToJSON(rows)
}

// TableExists reports whether a user table with the given name exists.
func (d *DuckDB) TableExists(ctx context.Context, name string) (bool, error) {
	var cnt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM duckdb_tables() WHERE table_name = ?`, name).Scan(&cnt)
	return cnt > 0, err
}

// SequenceExists reports whether a sequence with the given name exists.
func (d *DuckDB) SequenceExists(ctx context.Context, name string) (bool, error) {
	var cnt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM duckdb_sequences() WHERE sequence_name = ?`, name).Scan(&cnt)
	return cnt > 0, err
}

// Columns returns column metadata for a table in ordinal order.
func (d *DuckDB) Columns(ctx context.Context, table string) ([]domain.ColumnInfo, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns
		 WHERE table_name = ? ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []domain.ColumnInfo
	for rows.Next() {
		var c domain.ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, domain.ErrNotFound("collection %q does not exist", table)
	}
	return cols, nil
}

// ListTables returns user tables whose name starts with prefix, sorted.
func (d *DuckDB) ListTables(ctx context.Context, prefix string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT table_name FROM duckdb_tables()
		 WHERE NOT internal AND substr(table_name, 1, length(?)) = ?
		 ORDER BY table_name`, prefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// MaxID returns the largest id in a collection, 0 when the table is empty.
func (d *DuckDB) MaxID(ctx context.Context, table string) (int64, error) {
	var maxID int64
	err := d.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COALESCE(MAX(id), 0) FROM %s`, quoteIdent(table))).Scan(&maxID)
	return maxID, err
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TableSizes returns size snapshots for user tables whose name starts with
// prefix. Row counts come from the catalog estimate; byte totals are the
// estimate multiplied by the mean row width of the table's blocks, which is
// what the engine exposes without a full scan.
func (d *DuckDB) TableSizes(ctx context.Context, prefix string) ([]domain.RelationSize, error) {
	blockSize, err := d.databaseBlockSize(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT table_name, estimated_size
		 FROM duckdb_tables()
		 WHERE NOT internal AND substr(table_name, 1, length(?)) = ?
		 ORDER BY table_name`, prefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sizes []domain.RelationSize
	for rows.Next() {
		var s domain.RelationSize
		if err := rows.Scan(&s.Name, &s.RowEstimate); err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sizes {
		blocks, err := d.tableBlockCount(ctx, sizes[i].Name)
		if err != nil {
			return nil, err
		}
		sizes[i].TotalBytes = blocks * blockSize
	}
	return sizes, nil
}

func (d *DuckDB) databaseBlockSize(ctx context.Context) (int64, error) {
	var (
		name, size, walSize, memUsage, memLimit string
		blockSize, totalBlocks, usedBlocks      sql.NullInt64
		freeBlocks                              sql.NullInt64
	)
	row := d.db.QueryRowContext(ctx, `SELECT * FROM pragma_database_size() LIMIT 1`)
	if err := row.Scan(&name, &size, &blockSize, &totalBlocks, &usedBlocks, &freeBlocks, &walSize, &memUsage, &memLimit); err != nil {
		return 0, fmt.Errorf("database size: %w", err)
	}
	if !blockSize.Valid || blockSize.Int64 <= 0 {
		return 1, nil
	}
	return blockSize.Int64, nil
}

func (d *DuckDB) tableBlockCount(ctx context.Context, table string) (int64, error) {
	var blocks sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT block_id) FROM pragma_storage_info(?) WHERE block_id >= 0`,
		table).Scan(&blocks)
	if err != nil {
		return 0, fmt.Errorf("storage info for %q: %w", table, err)
	}
	return blocks.Int64, nil
}
