package storage

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/leeovery/taskman/internal/migrate"
)

// sqliteParams are appended to every SQLite DSN. The busy timeout lets a
// second process wait for a writer instead of failing immediately.
const sqliteParams = "_busy_timeout=5000&_foreign_keys=on"

// Target is a resolved storage connection: which driver to use, the DSN to
// hand it, and for file-backed SQLite the database file path.
type Target struct {
	Dialect migrate.Dialect
	Driver  string
	DSN     string
	// Path is the SQLite database file. Empty for MySQL and in-memory SQLite.
	Path string
}

// LockPath returns the flock file guarding writes, or "" when the target has
// no file to guard.
func (t Target) LockPath() string {
	if t.Path == "" {
		return ""
	}
	return t.Path + ".lock"
}

// ParseURL resolves a DATABASE_URL value into a Target.
//
// Accepted forms:
//
//	tasks.db                       SQLite file path
//	sqlite://tasks.db              SQLite file path
//	file:tasks.db?mode=rwc         SQLite URI, passed through
//	mysql://user:pw@tcp(host)/db   MySQL, go-sql-driver DSN after the scheme
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, fmt.Errorf("database URL is empty")
	}

	switch {
	case strings.HasPrefix(raw, "mysql://"):
		return parseMySQL(strings.TrimPrefix(raw, "mysql://"))
	case strings.HasPrefix(raw, "sqlite3://"):
		return parseSQLite(strings.TrimPrefix(raw, "sqlite3://"))
	case strings.HasPrefix(raw, "sqlite://"):
		return parseSQLite(strings.TrimPrefix(raw, "sqlite://"))
	default:
		return parseSQLite(raw)
	}
}

func parseMySQL(dsn string) (Target, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return Target{}, fmt.Errorf("invalid mysql DSN: %w", err)
	}
	if cfg.DBName == "" {
		return Target{}, fmt.Errorf("invalid mysql DSN: no database name")
	}
	return Target{
		Dialect: migrate.DialectMySQL,
		Driver:  "mysql",
		DSN:     cfg.FormatDSN(),
	}, nil
}

func parseSQLite(dsn string) (Target, error) {
	if dsn == "" {
		return Target{}, fmt.Errorf("sqlite path is empty")
	}

	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		path = ""
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	return Target{
		Dialect: migrate.DialectSQLite,
		Driver:  "sqlite3",
		DSN:     dsn + sep + sqliteParams,
		Path:    path,
	}, nil
}
