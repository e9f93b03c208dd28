// Package db opens the SQLite metastore and applies its migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// Metastore bundles the two pools the control plane runs on. SQLite allows a
// single writer at a time, so Write is capped at one connection and every
// mutating repository shares it; Read serves concurrent lookups (the query
// engine's SRID checks, mostly) against the same file.
type Metastore struct {
	Write *sql.DB
	Read  *sql.DB
}

type poolKind int

const (
	poolWrite poolKind = iota
	poolRead
)

// OpenMetastore opens the write and read pools for the metastore file and
// verifies both are usable. readPoolSize <= 0 falls back to 4 readers.
func OpenMetastore(path string, readPoolSize int) (*Metastore, error) {
	write, err := openPool(path, poolWrite, 1)
	if err != nil {
		return nil, fmt.Errorf("open metastore write pool: %w", err)
	}

	read, err := openPool(path, poolRead, readPoolSize)
	if err != nil {
		_ = write.Close()
		return nil, fmt.Errorf("open metastore read pool: %w", err)
	}

	return &Metastore{Write: write, Read: read}, nil
}

// Close closes both pools, reporting the first failure.
func (m *Metastore) Close() error {
	rerr := m.Read.Close()
	werr := m.Write.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func openPool(path string, kind poolKind, maxOpen int) (*sql.DB, error) {
	if kind == poolWrite {
		maxOpen = 1
	} else if maxOpen <= 0 {
		maxOpen = 4
	}

	pool, err := sql.Open("sqlite3", metastoreDSN(path, kind))
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	return pool, nil
}

// metastoreDSN hardens the connection: WAL so readers never block the writer,
// a busy timeout instead of immediate SQLITE_BUSY, and foreign keys on. The
// write pool additionally takes its transactions with an immediate lock so a
// grant pair cannot deadlock against a concurrent upgrade.
func metastoreDSN(path string, kind poolKind) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")
	if kind == poolWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
