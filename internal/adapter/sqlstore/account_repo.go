package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"socialmedia/internal/domain"
	"socialmedia/internal/security/password"
)

// AccountRepo implements domain.AccountRepository.
type AccountRepo struct {
	store
	hasher password.Hasher
}

var _ domain.AccountRepository = (*AccountRepo)(nil)

// NewAccountRepo creates an AccountRepo that hashes passwords with hasher.
func NewAccountRepo(conns ConnProvider, hasher password.Hasher) *AccountRepo {
	return &AccountRepo{store: store{conns: conns}, hasher: hasher}
}

// Get retrieves an account by ID.
func (r *AccountRepo) Get(ctx context.Context, id int64) (domain.Account, bool, error) {
	return r.queryOne(ctx, "account.get",
		"SELECT account_id, username, password FROM account WHERE account_id = ?", id)
}

// FindByUsername retrieves an account by exact username.
func (r *AccountRepo) FindByUsername(ctx context.Context, username string) (domain.Account, bool, error) {
	return r.queryOne(ctx, "account.find_by_username",
		"SELECT account_id, username, password FROM account WHERE username = ?", username)
}

// List returns every account.
func (r *AccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	err := r.do(ctx, "account.list", func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, r.q("SELECT account_id, username, password FROM account ORDER BY account_id"))
		if err != nil {
			return err
		}
		defer rows.Close() //nolint:errcheck

		out = make([]domain.Account, 0)
		for rows.Next() {
			var a domain.Account
			if err := rows.Scan(&a.AccountID, &a.Username, &a.Password); err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create hashes the candidate's password and inserts the account.
func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	hash, err := r.hash(a.Password)
	if err != nil {
		return domain.Account{}, err
	}
	created := domain.Account{Username: a.Username, Password: hash}
	err = r.do(ctx, "account.create", func(conn *sql.Conn) error {
		return conn.QueryRowContext(ctx,
			r.q("INSERT INTO account (username, password) VALUES (?, ?) RETURNING account_id"),
			created.Username, created.Password,
		).Scan(&created.AccountID)
	})
	if err != nil {
		return domain.Account{}, err
	}
	return created, nil
}

// Update re-hashes the supplied password and writes username and password.
func (r *AccountRepo) Update(ctx context.Context, a domain.Account) (domain.Account, error) {
	hash, err := r.hash(a.Password)
	if err != nil {
		return domain.Account{}, err
	}
	updated := domain.Account{AccountID: a.AccountID, Username: a.Username, Password: hash}
	err = r.do(ctx, "account.update", func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			r.q("UPDATE account SET username = ?, password = ? WHERE account_id = ?"),
			updated.Username, updated.Password, updated.AccountID,
		)
		return err
	})
	if err != nil {
		return domain.Account{}, err
	}
	return updated, nil
}

// Delete removes an account and returns its last state. Accounts that still
// own messages cannot be deleted and yield ErrConflict.
func (r *AccountRepo) Delete(ctx context.Context, id int64) (domain.Account, bool, error) {
	a, ok, err := r.queryOne(ctx, "account.delete",
		"DELETE FROM account WHERE account_id = ? RETURNING account_id, username, password", id)
	if errors.Is(err, errForeignKey) {
		return domain.Account{}, false, fmt.Errorf("account %d still has messages: %w", id, domain.ErrConflict)
	}
	return a, ok, err
}

func (r *AccountRepo) queryOne(ctx context.Context, op, query string, arg any) (domain.Account, bool, error) {
	var a domain.Account
	found := false
	err := r.do(ctx, op, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, r.q(query), arg).Scan(&a.AccountID, &a.Username, &a.Password)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return domain.Account{}, false, err
	}
	return a, true, nil
}

func (r *AccountRepo) hash(plain string) (string, error) {
	hash, err := r.hasher.Hash(plain)
	switch {
	case errors.Is(err, password.ErrEmpty), errors.Is(err, password.ErrTooLong):
		return "", domain.Invalid("password: %v", err)
	case err != nil:
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
