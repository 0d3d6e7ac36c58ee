package database

import (
	"net/url"
	"strings"
)

// DatabaseType represents the type of database
type DatabaseType string

const (
	DatabasePostgres DatabaseType = "postgres"
	DatabaseSQLite   DatabaseType = "sqlite"
	DatabaseUnknown  DatabaseType = "unknown"
)

// Config is the database section of the YAML config
type Config struct {
	URL          string `yaml:"url" json:"url"`
	MaxOpenConns int    `yaml:"max_open_conns,omitempty" json:"max_open_conns,omitempty"`
}

// DetectType detects the database type from a URL scheme or file extension
func DetectType(dbURL string) DatabaseType {
	switch {
	case strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://"):
		return DatabasePostgres
	case strings.HasPrefix(dbURL, "sqlite://") || strings.HasPrefix(dbURL, "sqlite3://"):
		return DatabaseSQLite
	case strings.HasSuffix(dbURL, ".db") || strings.HasSuffix(dbURL, ".sqlite"):
		return DatabaseSQLite
	default:
		return DatabaseUnknown
	}
}

// SQLitePath extracts the file path from a sqlite URL
func SQLitePath(dbURL string) string {
	for _, prefix := range []string{"sqlite3://", "sqlite://"} {
		if strings.HasPrefix(dbURL, prefix) {
			return strings.TrimPrefix(dbURL, prefix)
		}
	}
	return dbURL
}

// sqliteDSN builds a modernc DSN with the pragmas the store relies on
func sqliteDSN(path string) string {
	params := make(url.Values)
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + params.Encode()
}

// Redact hides the password of a database URL for logging
func Redact(dbURL string) string {
	parsed, err := url.Parse(dbURL)
	if err != nil || parsed.User == nil {
		return dbURL
	}
	if _, ok := parsed.User.Password(); ok {
		parsed.User = url.UserPassword(parsed.User.Username(), "xxxxx")
	}
	return parsed.String()
}
