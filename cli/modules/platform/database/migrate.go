package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending up migration for the dialect.
// It uses its own connection, closed on return.
func Migrate(typ DatabaseType, driverName, dsn string) error {
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return err
	}

	var (
		driver database.Driver
		dir    string
		name   string
	)
	switch typ {
	case DatabaseSQLite:
		driver, err = migratesqlite.WithInstance(conn, &migratesqlite.Config{})
		dir, name = "migrations/sqlite", "sqlite"
	case DatabasePostgres:
		driver, err = migratepgx.WithInstance(conn, &migratepgx.Config{})
		dir, name = "migrations/postgres", "pgx5"
	default:
		err = fmt.Errorf("no migrations for database type %s", typ)
	}
	if err != nil {
		conn.Close()
		return err
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		conn.Close()
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		conn.Close()
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
