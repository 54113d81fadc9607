package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

// RunSQLiteMigrations applies the embedded SQLite migrations to the database
// at dbPath.
func RunSQLiteMigrations(dbPath string) error {
	// Separate connection so closing the migrator does not close the main pool
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	return runMigrations(driver, "sqlite", "migrations/sqlite")
}

// RunMySQLMigrations applies the embedded MySQL migrations. The migration
// connection enables multi statements; the application pool does not.
func RunMySQLMigrations(cfg *mysql.Config) error {
	mcfg := cfg.Clone()
	mcfg.MultiStatements = true

	migrateDB, err := sql.Open("mysql", mcfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := migratemysql.WithInstance(migrateDB, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("create mysql driver: %w", err)
	}
	return runMigrations(driver, "mysql", "migrations/mysql")
}

func runMigrations(driver database.Driver, name, dir string) error {
	d, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, name, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
