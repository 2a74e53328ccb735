// Command nestedset-migrate applies the embedded schema migrations for the
// tree table and, when asked, backfills left/right/level from the existing
// path column on rows that predate this library.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/hazelset/nestedset/pathcodec"
	"github.com/hazelset/nestedset/pkg/log"
	"github.com/hazelset/nestedset/store"
)

func main() {
	var (
		configFile   string
		table        string
		pkColumn     string
		parentColumn string
		pathColumn   string
		backfill     bool
	)

	flag.StringVar(&configFile, "config", "./config.json", "Path to the store config (see store.LoadConfig)")
	flag.StringVar(&table, "table", "tree_nodes", "Name of the table to migrate/backfill")
	flag.StringVar(&pkColumn, "pk-column", "id", "Primary key column of `table`")
	flag.StringVar(&parentColumn, "parent-column", "", "Legacy adjacency-list parent column (optional); accepted, but backfilling `path` from it is not implemented and only logs a warning")
	flag.StringVar(&pathColumn, "path-column", "path", "Tree path column of `table`")
	flag.BoolVar(&backfill, "backfill", false, "After applying migrations, recompute left/right/level for every row from its path")
	flag.Parse()

	cfg, err := store.LoadConfig(configFile)
	if err != nil {
		log.Fatal(err)
	}

	if err := runSchemaMigration(cfg); err != nil {
		log.Fatal(err)
	}

	if backfill {
		s, err := store.Connect(cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer s.Close()

		if err := backfillTreeColumns(context.Background(), s, table, pkColumn, pathColumn, parentColumn); err != nil {
			log.Fatal(err)
		}
	}
}

func runSchemaMigration(cfg store.Config) error {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("nestedset-migrate: open %s: %w", cfg.Driver, err)
	}
	defer db.Close()

	var m *migrate.Migrate
	switch cfg.Driver {
	case "sqlite3":
		driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return err
		}
		d, err := iofs.New(store.MigrationFiles, "migrations/sqlite3")
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", d, "sqlite3", driver)
		if err != nil {
			return err
		}
	case "mysql":
		driver, err := mysql.WithInstance(db, &mysql.Config{})
		if err != nil {
			return err
		}
		d, err := iofs.New(store.MigrationFiles, "migrations/mysql")
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", d, "mysql", driver)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("nestedset-migrate: unsupported driver %q", cfg.Driver)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("nestedset-migrate: apply migrations: %w", err)
	}
	log.Info("schema migrations up to date")
	return nil
}

// backfillTreeColumns recomputes left/right/level for every row in table
// from its existing path column. It reads every row's key and path first
// and then issues one UPDATE per row, so no cursor stays open alongside the
// UPDATEs (same reasoning as nestedset.MutationEngine.applyMove).
func backfillTreeColumns(ctx context.Context, s *store.Store, table, pkColumn, pathColumn, parentColumn string) error {
	if parentColumn != "" {
		log.Warn("parent-column backfill of the path column itself is not implemented; supply a table that already has a path column")
	}

	type row struct {
		pk   any
		path string
	}

	rows, err := s.Select(pkColumn, pathColumn).From(table).QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("nestedset-migrate: query rows: %w", err)
	}
	var batch []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.pk, &r.path); err != nil {
			rows.Close()
			return fmt.Errorf("nestedset-migrate: scan row: %w", err)
		}
		batch = append(batch, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	n := 0
	for _, r := range batch {
		m, err := pathcodec.FromPath(r.path)
		if err != nil {
			log.Warn(fmt.Sprintf("nestedset-migrate: skipping row %v with unparsable path %q: %v", r.pk, r.path, err))
			continue
		}
		level, err := pathcodec.LevelOfPath(r.path)
		if err != nil {
			log.Warn(fmt.Sprintf("nestedset-migrate: skipping row %v: %v", r.pk, err))
			continue
		}

		_, err = s.Update(table).
			Set("left", pathcodec.Left(m)).
			Set("right", pathcodec.Right(m)).
			Set("level", level).
			Where(pkColumn+" = ?", r.pk).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("nestedset-migrate: update row %v: %w", r.pk, err)
		}
		n++
	}

	log.Info(fmt.Sprintf("backfilled left/right/level on %d rows", n))
	return nil
}
