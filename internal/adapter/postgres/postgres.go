// Package postgres provides the PostgreSQL dialect for the SQL store.
package postgres

import (
	"errors"
	"strconv"
	"strings"

	"socialmedia/internal/adapter/sqlstore"

	"github.com/lib/pq"
)

// SQLSTATE codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Dialect implements sqlstore.Dialect for lib/pq.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string, o sqlstore.Options) (*sqlstore.Pool, error) {
	return sqlstore.Open("postgres", connStr, Dialect{}, o)
}

// Name returns the driver name.
func (Dialect) Name() string { return "postgres" }

// Rebind rewrites ? placeholders to $1, $2, ...
func (Dialect) Rebind(query string) string {
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

// Schema returns the DDL for the account and message tables.
func (Dialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS account (
			account_id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS message (
			message_id BIGSERIAL PRIMARY KEY,
			posted_by BIGINT NOT NULL REFERENCES account(account_id) ON DELETE RESTRICT,
			message_text TEXT NOT NULL,
			time_posted_epoch BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_message_posted_by ON message(posted_by);`,
	}
}

// Violation classifies pq constraint errors.
func (Dialect) Violation(err error) sqlstore.Violation {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return sqlstore.NoViolation
	}
	switch string(pqErr.Code) {
	case codeUniqueViolation:
		return sqlstore.UniqueViolation
	case codeForeignKeyViolation:
		return sqlstore.ForeignKeyViolation
	default:
		return sqlstore.NoViolation
	}
}
