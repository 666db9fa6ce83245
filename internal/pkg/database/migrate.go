package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/migrations"
	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

// MigratePostgres applies the embedded postgres migrations through a
// database/sql handle borrowed from the pool.
func MigratePostgres(db *DB) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres migration driver: %w", err)
	}

	m, err := runMigrations("postgres", driver)
	if err != nil {
		return err
	}
	// Releases the dedicated connection held by the driver.
	sourceErr, dbErr := m.Close()
	return errors.Join(sourceErr, dbErr)
}

func MigrateSQLite(db *SQLiteDB) error {
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}

	// Not closed: the sqlite driver would close the shared *sql.DB with it.
	_, err = runMigrations("sqlite", driver)
	return err
}

func runMigrations(dialect string, driver database.Driver) (*migrate.Migrate, error) {
	source, err := iofs.New(migrations.FS, dialect)
	if err != nil {
		return nil, fmt.Errorf("load %s migrations: %w", dialect, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("No new migrations to apply", "dialect", dialect)
	} else {
		slog.Info("Database migrations applied", "dialect", dialect)
	}
	return m, nil
}
