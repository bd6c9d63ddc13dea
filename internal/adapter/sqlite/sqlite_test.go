package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"socialmedia/internal/adapter/sqlstore"

	"github.com/mattn/go-sqlite3"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"app.db", "app.db?_foreign_keys=on&_busy_timeout=5000"},
		{"file:app.db?cache=shared", "file:app.db?cache=shared&_foreign_keys=on&_busy_timeout=5000"},
	}
	for _, tc := range tests {
		if got := DSN(tc.in); got != tc.want {
			t.Errorf("DSN(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want sqlstore.Violation
	}{
		{"unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, sqlstore.UniqueViolation},
		{"foreign key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}, sqlstore.ForeignKeyViolation},
		{"restrict", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintTrigger}, sqlstore.ForeignKeyViolation},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, sqlstore.NoViolation},
		{"plain", errors.New("disk I/O error"), sqlstore.NoViolation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := (Dialect{}).Violation(tc.err); got != tc.want {
				t.Errorf("Violation() = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestViolation_Driver(t *testing.T) {
	pool, err := Open(filepath.Join(t.TempDir(), "v.db"), sqlstore.Options{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	db := pool.DB()

	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
	}
	mustExec(`INSERT INTO account (account_id, username, password) VALUES (1, 'alice', 'x')`)
	mustExec(`INSERT INTO message (posted_by, message_text, time_posted_epoch) VALUES (1, 'hi', 1)`)

	tests := []struct {
		name  string
		query string
		want  sqlstore.Violation
	}{
		{"duplicate username", `INSERT INTO account (username, password) VALUES ('alice', 'y')`, sqlstore.UniqueViolation},
		{"unknown author", `INSERT INTO message (posted_by, message_text, time_posted_epoch) VALUES (2, 'hi', 1)`, sqlstore.ForeignKeyViolation},
		{"delete referenced account", `DELETE FROM account WHERE account_id = 1`, sqlstore.ForeignKeyViolation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.Exec(tc.query)
			if err == nil {
				t.Fatal("expected a constraint error")
			}
			if got := (Dialect{}).Violation(err); got != tc.want {
				t.Errorf("Violation(%v) = %v; want %v", err, got, tc.want)
			}
		})
	}
}
