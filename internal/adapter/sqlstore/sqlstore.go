// Package sqlstore implements the domain repositories on database/sql.
//
// The SQL is dialect neutral: queries are written with ? placeholders and
// rebound by the Dialect, and driver constraint errors are classified by the
// Dialect so repositories can translate them into domain errors.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"socialmedia/internal/domain"
	"socialmedia/internal/metrics"
)

// Violation classifies a constraint failure reported by the driver.
type Violation int

const (
	NoViolation Violation = iota
	UniqueViolation
	ForeignKeyViolation
)

// Dialect isolates the driver-specific parts of the store.
type Dialect interface {
	Name() string
	Rebind(query string) string
	Schema() []string
	Violation(err error) Violation
}

// ConnProvider hands out one connection per logical operation. The caller
// closes the connection to release it.
type ConnProvider interface {
	Acquire(ctx context.Context) (*sql.Conn, error)
	Dialect() Dialect
}

// Options sizes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Pool is the ConnProvider backed by a *sql.DB.
type Pool struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects with driver, pings, and creates the schema.
func Open(driver, dsn string, d Dialect, o Options) (*Pool, error) {
	s, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if o.MaxOpenConns > 0 {
		s.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		s.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetime > 0 {
		s.SetConnMaxLifetime(o.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	p := &Pool{db: s, dialect: d}
	if err := p.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return p, nil
}

// Acquire borrows a connection from the pool.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	return p.db.Conn(ctx)
}

// Dialect returns the dialect the pool was opened with.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

// DB exposes the underlying handle for pool statistics.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Close closes the underlying database connection.
func (p *Pool) Close() error {
	return p.db.Close()
}

// Migrate creates any missing tables and indexes.
func (p *Pool) Migrate(ctx context.Context) error {
	for _, stmt := range p.dialect.Schema() {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var errForeignKey = errors.New("foreign key violation")

// store runs single operations on a borrowed connection.
type store struct {
	conns ConnProvider
}

func (s store) q(query string) string {
	return s.conns.Dialect().Rebind(query)
}

// do acquires a connection, runs fn and releases the connection on every
// path. Errors that are not already domain errors come back as a
// *domain.StorageError, except unique violations (ErrConflict) and foreign
// key violations (errForeignKey) which the caller maps further.
func (s store) do(ctx context.Context, op string, fn func(conn *sql.Conn) error) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStorage(op, err, time.Since(start)) }()

	conn, err := s.conns.Acquire(ctx)
	if err != nil {
		return domain.NewStorageError(op, fmt.Errorf("acquire: %w", err))
	}
	defer conn.Close() //nolint:errcheck

	err = fn(conn)
	if err == nil || isDomainError(err) {
		return err
	}
	switch s.conns.Dialect().Violation(err) {
	case UniqueViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	case ForeignKeyViolation:
		return fmt.Errorf("%s: %w: %v", op, errForeignKey, err)
	}
	return domain.NewStorageError(op, err)
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrStorage)
}
