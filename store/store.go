// Package store is the thin, typed façade (§4.7 / C7 of the positional
// algebra this module implements) that the mutation engine and query
// builder use to reach the backing SQL table. Everything about the actual
// connection — driver selection, instrumentation, transaction boundaries —
// lives here; package nestedset never imports sqlx or a SQL driver, and
// reaches the database only through this package's Runner, Store and Txn.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"
)

// Runner is the minimal SQL surface the mutation engine and query builder
// require. It is satisfied by both *Store and *Txn, so neither one needs to
// know whether it is running inside an open transaction.
type Runner interface {
	Select(columns ...string) sq.SelectBuilder
	Update(table string) sq.UpdateBuilder
	Delete(table string) sq.DeleteBuilder
	Insert(table string) sq.InsertBuilder
}

// Store owns the pooled connection to the node table's database.
type Store struct {
	db          *sqlx.DB
	driver      string
	placeholder sq.PlaceholderFormat
	builder     sq.StatementBuilderType
}

var registerHooksOnce sync.Once

// Connect opens a pooled connection per cfg. For sqlite3 with Debug set, the
// driver is wrapped with sqlhooks so every statement and its elapsed time is
// logged at debug level — the same instrumentation technique the rest of
// the ambient stack uses for observability, never for control flow.
func Connect(cfg Config) (*Store, error) {
	var db *sqlx.DB
	var err error

	switch cfg.Driver {
	case "sqlite3":
		driverName := "sqlite3"
		if cfg.Debug {
			registerHooksOnce.Do(func() {
				sql.Register("sqlite3WithHooks", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, hooks{}))
			})
			driverName = "sqlite3WithHooks"
		}
		db, err = sqlx.Open(driverName, cfg.DSN)
		if err == nil {
			// sqlite3 does not multithread; more than one open connection
			// just serializes on the same file lock.
			db.SetMaxOpenConns(1)
		}
	case "mysql":
		db, err = sqlx.Open("mysql", cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", cfg.Driver, err)
	}

	placeholder := sq.Question
	return &Store{
		db:          db,
		driver:      cfg.Driver,
		placeholder: placeholder,
		builder:     sq.StatementBuilder.PlaceholderFormat(placeholder).RunWith(db),
	}, nil
}

// Driver reports the configured driver name ("sqlite3" or "mysql").
func (s *Store) Driver() string { return s.driver }

// DB exposes the pooled *sqlx.DB for callers that need raw SQL access (the
// tests install their schema through it); the mutation engine and query
// builder never use it.
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Select(columns ...string) sq.SelectBuilder { return s.builder.Select(columns...) }
func (s *Store) Update(table string) sq.UpdateBuilder       { return s.builder.Update(table) }
func (s *Store) Delete(table string) sq.DeleteBuilder       { return s.builder.Delete(table) }
func (s *Store) Insert(table string) sq.InsertBuilder       { return s.builder.Insert(table) }

// Txn is a single open transaction. The mutation engine acquires one at the
// start of every write operation and releases it (commit or rollback)
// before returning; transactions are never held across calls (§5).
type Txn struct {
	tx *sqlx.Tx
}

// BeginTxn opens a transaction bound to the same connection pool. Every
// Runner call made against the returned Txn runs inside it until Commit or
// Rollback is called.
func (s *Store) BeginTxn(ctx context.Context) (*Txn, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin transaction: %w", err)
	}
	return &Txn{tx: tx}, nil
}

func (t *Txn) Select(columns ...string) sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(t.tx).Select(columns...)
}

func (t *Txn) Update(table string) sq.UpdateBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(t.tx).Update(table)
}

func (t *Txn) Delete(table string) sq.DeleteBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(t.tx).Delete(table)
}

func (t *Txn) Insert(table string) sq.InsertBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question).RunWith(t.tx).Insert(table)
}

// Commit commits the transaction.
func (t *Txn) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Rollback rolls the transaction back. After a successful Commit it returns
// an error from database/sql (sql.ErrTxDone). The mutation engine defers
// Rollback on every path and discards its result, so its callers never see
// that error.
func (t *Txn) Rollback() error {
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("store: rollback: %w", err)
	}
	return nil
}

// LastRoot returns the highest root-level path segment currently stored
// under pathColumn, or 0 if the table has no root rows at all. It backs
// root allocation (§4.5.1): new top-level nodes are assigned
// strconv.Itoa(LastRoot()+1).
func LastRoot(ctx context.Context, r Runner, table, pathColumn, levelColumn string) (int64, error) {
	rows, err := r.Select(pathColumn).From(table).Where(sq.Eq{levelColumn: 1}).QueryContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: query roots: %w", err)
	}
	defer rows.Close()

	var last int64
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return 0, fmt.Errorf("store: scan root path: %w", err)
		}
		var segment int64
		if _, err := fmt.Sscanf(path, "%d", &segment); err != nil {
			return 0, fmt.Errorf("store: root path %q is not a bare segment: %w", path, err)
		}
		if segment > last {
			last = segment
		}
	}
	return last, rows.Err()
}
