package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a connection pool with the dialect it speaks
type DB struct {
	*sql.DB
	Type DatabaseType
}

// Open connects to the configured database and applies pending migrations
func Open(ctx context.Context, cfg Config) (*DB, error) {
	typ := DetectType(cfg.URL)

	var (
		driver string
		dsn    string
	)
	switch typ {
	case DatabasePostgres:
		driver, dsn = "pgx", cfg.URL
	case DatabaseSQLite:
		path := SQLitePath(cfg.URL)
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		driver, dsn = "sqlite", sqliteDSN(path)
	default:
		return nil, fmt.Errorf("unsupported database url: %s", Redact(cfg.URL))
	}

	if err := Migrate(typ, driver, dsn); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	pool, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if typ == DatabaseSQLite {
		pool.SetMaxOpenConns(1) // sqlite serialises writers
	} else if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: pool, Type: typ}, nil
}

// Rebind rewrites ? placeholders into the dialect's form
func (db *DB) Rebind(query string) string {
	if db.Type != DatabasePostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WithTx runs fn in a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Now returns UTC time truncated to seconds
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// IsUniqueViolation reports whether err comes from a UNIQUE constraint
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
