// Package migrations applies the service's versioned schema using
// golang-migrate, reading migration files embedded directly into the
// binary, the same embed.FS idiom the platform layer uses for seed data.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var files embed.FS

// ApplyDSN opens a short-lived database/sql connection over the pgx stdlib
// driver and applies every pending migration, then closes it. The service
// itself talks to Postgres through pgxpool; this connection exists only
// because golang-migrate's Postgres driver is database/sql-based.
func ApplyDSN(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("migrations: open: %w", err)
	}
	defer db.Close()
	return Apply(db)
}

// Apply runs every pending up migration against db. It is safe to call on
// every boot: a schema already at the latest version is a no-op.
func Apply(db *sql.DB) error {
	source, err := iofs.New(files, "sql")
	if err != nil {
		return fmt.Errorf("migrations: load embedded source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migrations: open postgres driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrations: build migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: apply: %w", err)
	}
	return nil
}

// Version reports the schema's current migration version and whether it
// is in a dirty (failed mid-migration) state.
func Version(db *sql.DB) (uint, bool, error) {
	source, err := iofs.New(files, "sql")
	if err != nil {
		return 0, false, err
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, false, err
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
