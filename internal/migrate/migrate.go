// Package migrate defines versioned schema migrations for the taskman store
// and the engine that applies them against a database.
package migrate

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Dialect identifies the SQL flavour a set of statements is written for.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// Migration is a single versioned schema change. Versions are compared as
// strings, so they are zero-padded ("0001", "0002", ...).
type Migration struct {
	Version    string
	Name       string
	Statements []string
}

// Checksum returns the SHA256 hex digest of the migration's statements.
// It is recorded in the ledger and compared on every run to detect edits to
// already-applied migrations.
func (m Migration) Checksum() string {
	h := sha256.Sum256([]byte(strings.Join(m.Statements, ";\n")))
	return fmt.Sprintf("%x", h)
}

// Label returns "<version>_<name>" for log and error output.
func (m Migration) Label() string {
	if m.Name == "" {
		return m.Version
	}
	return m.Version + "_" + m.Name
}

// TaskMigrations returns the ordered migrations for the tasks table in the
// given dialect. A fresh slice is built on each call.
func TaskMigrations(d Dialect) []Migration {
	switch d {
	case DialectMySQL:
		return []Migration{
			{
				Version: "0001",
				Name:    "create_tasks",
				Statements: []string{`CREATE TABLE IF NOT EXISTS tasks (
  id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NULL,
  completed BOOLEAN NOT NULL DEFAULT FALSE
)`},
			},
			{
				Version:    "0002",
				Name:       "index_completed",
				Statements: []string{`CREATE INDEX idx_tasks_completed ON tasks(completed)`},
			},
		}
	default:
		return []Migration{
			{
				Version: "0001",
				Name:    "create_tasks",
				Statements: []string{`CREATE TABLE IF NOT EXISTS tasks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  description TEXT,
  completed BOOLEAN NOT NULL DEFAULT 0
)`},
			},
			{
				Version:    "0002",
				Name:       "index_completed",
				Statements: []string{`CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed)`},
			},
		}
	}
}

// ledgerDDL returns the CREATE statement for the schema_migrations table.
func ledgerDDL(d Dialect) string {
	if d == DialectMySQL {
		return `CREATE TABLE IF NOT EXISTS schema_migrations (
  version VARCHAR(32) NOT NULL PRIMARY KEY,
  name VARCHAR(255) NOT NULL,
  checksum CHAR(64) NOT NULL,
  applied_at BIGINT NOT NULL
)`
	}
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  checksum TEXT NOT NULL,
  applied_at INTEGER NOT NULL
)`
}

// ledgerExistsQuery returns a query yielding one row when schema_migrations exists.
func ledgerExistsQuery(d Dialect) string {
	if d == DialectMySQL {
		return `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'schema_migrations'`
	}
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'`
}
