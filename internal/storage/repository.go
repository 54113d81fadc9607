// Package storage persists members, trainers, payments and the smaller
// activity tables in SQLite or MySQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"bigboss/internal/core"
	"bigboss/internal/report"
)

// ErrNotFound is returned when an update or delete matched no row.
var ErrNotFound = errors.New("not found")

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Repository runs every query against one *sql.DB. The dialect only matters
// for the monthly aggregate; all other statements are portable.
type Repository struct {
	db      *sql.DB
	dialect report.Dialect
	now     func() time.Time
}

// NewRepository wraps an open database. Migrations are the caller's concern.
func NewRepository(db *sql.DB, dialect report.Dialect) *Repository {
	return &Repository{db: db, dialect: dialect, now: time.Now}
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and migrates it.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunSQLiteMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewRepository(db, report.SQLite), nil
}

// MySQLConfig holds the connection settings for the MySQL backend.
type MySQLConfig struct {
	Addr     string
	User     string
	Password string
	Database string
}

// DriverConfig builds the go-sql-driver configuration. Timestamps are parsed
// into time.Time in UTC and UPDATE reports matched rather than changed rows.
func (c MySQLConfig) DriverConfig() *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = c.Addr
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg
}

// NewMySQLRepository connects to MySQL and migrates the schema.
func NewMySQLRepository(ctx context.Context, c MySQLConfig) (*Repository, error) {
	cfg := c.DriverConfig()

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql database: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMySQLMigrations(cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewRepository(db, report.MySQL), nil
}

// Dialect reports which SQL engine backs the repository.
func (r *Repository) Dialect() report.Dialect { return r.dialect }

// Ping checks the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}

func nullableDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.Format(dateLayout)
}

// sqlTime scans the timestamp shapes the two drivers hand back: time.Time
// from MySQL with parseTime, text from SQLite.
type sqlTime struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	dateTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05",
	dateLayout,
}

func (t *sqlTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = x.UTC(), true
		return nil
	case string:
		return t.parse(x)
	case []byte:
		return t.parse(string(x))
	default:
		return fmt.Errorf("unsupported time value %T", v)
	}
}

func (t *sqlTime) parse(s string) error {
	if s == "" {
		t.Time, t.Valid = time.Time{}, false
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unparseable time %q", s)
}

func (t sqlTime) date() core.Date {
	if !t.Valid {
		return core.Date{}
	}
	return core.NewDate(t.Time.Year(), int(t.Time.Month()), t.Time.Day())
}
