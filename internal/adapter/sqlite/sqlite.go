// Package sqlite provides the SQLite dialect for the SQL store.
package sqlite

import (
	"errors"
	"strings"

	"socialmedia/internal/adapter/sqlstore"

	"github.com/mattn/go-sqlite3"
)

// Dialect implements sqlstore.Dialect for mattn/go-sqlite3.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// Open opens the database file at path with foreign keys enforced on every
// pooled connection, then runs migrations.
func Open(path string, o sqlstore.Options) (*sqlstore.Pool, error) {
	return sqlstore.Open("sqlite3", DSN(path), Dialect{}, o)
}

// DSN appends the connection parameters the store relies on.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Name returns the driver name.
func (Dialect) Name() string { return "sqlite3" }

// Rebind is a no-op; SQLite understands ? natively.
func (Dialect) Rebind(query string) string { return query }

// Schema returns the DDL for the account and message tables.
func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS account (
			account_id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS message (
			message_id INTEGER PRIMARY KEY AUTOINCREMENT,
			posted_by INTEGER NOT NULL REFERENCES account(account_id) ON DELETE RESTRICT,
			message_text TEXT NOT NULL,
			time_posted_epoch INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_message_posted_by ON message(posted_by);`,
	}
}

// Violation classifies sqlite3 constraint errors. SQLite reports an
// ON DELETE RESTRICT hit as a trigger constraint rather than a foreign key
// one; the schema defines no triggers of its own.
func (Dialect) Violation(err error) sqlstore.Violation {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return sqlstore.NoViolation
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return sqlstore.UniqueViolation
	case sqlite3.ErrConstraintForeignKey, sqlite3.ErrConstraintTrigger:
		return sqlstore.ForeignKeyViolation
	default:
		return sqlstore.NoViolation
	}
}
