// Package app holds the application services and business logic.
package app

import (
	"context"
	"fmt"
	"sync"

	"socialmedia/internal/domain"
	"socialmedia/internal/security/password"

	"go.uber.org/zap"
)

// AccountService handles registration, login and account management.
type AccountService struct {
	accounts domain.AccountRepository
	hasher   password.Hasher
	log      *zap.Logger

	// decoy is verified against when the username is unknown so that login
	// costs the same whether or not the account exists.
	decoy func() string
}

// AccountOption configures an AccountService.
type AccountOption func(*AccountService)

// WithHasher sets the password scheme. It must match the one the repository
// hashes with; its length limit is enforced before storage is touched.
func WithHasher(h password.Hasher) AccountOption {
	return func(s *AccountService) { s.hasher = h }
}

// NewAccountService creates a new account service. A nil logger discards
// output. Without WithHasher the default argon2id scheme is assumed.
func NewAccountService(accounts domain.AccountRepository, log *zap.Logger, opts ...AccountOption) *AccountService {
	s := &AccountService{
		accounts: accounts,
		hasher:   password.Argon2id{Params: password.DefaultArgon2},
		log:      orNop(log).Named("account"),
	}
	for _, o := range opts {
		o(s)
	}
	h := s.hasher
	s.decoy = sync.OnceValue(func() string {
		hash, _ := h.Hash("decoy password")
		return hash
	})
	return s
}

// checkPassword applies the shared rules plus the scheme's byte limit.
func (s *AccountService) checkPassword(plain string) error {
	if err := validateVar("Password", plain, passwordRules); err != nil {
		return err
	}
	if limit := s.hasher.MaxBytes(); limit > 0 && len(plain) > limit {
		return domain.Invalid("Password exceeds %d bytes", limit)
	}
	return nil
}

// Register validates the candidate and creates the account. A taken username
// yields ErrConflict.
func (s *AccountService) Register(ctx context.Context, candidate domain.Account) (domain.Account, error) {
	if err := validateStruct(candidate); err != nil {
		return domain.Account{}, report(s.log, "register", err)
	}
	if err := s.checkPassword(candidate.Password); err != nil {
		return domain.Account{}, report(s.log, "register", err)
	}

	_, exists, err := s.accounts.FindByUsername(ctx, candidate.Username)
	if err != nil {
		return domain.Account{}, report(s.log, "register", err)
	}
	if exists {
		return domain.Account{}, report(s.log, "register",
			fmt.Errorf("username %q: %w", candidate.Username, domain.ErrConflict))
	}

	created, err := s.accounts.Create(ctx, domain.Account{
		Username: candidate.Username,
		Password: candidate.Password,
	})
	if err != nil {
		return domain.Account{}, report(s.log, "register", err)
	}
	s.log.Info("account registered", zap.Int64("account_id", created.AccountID))
	return created, nil
}

// Authenticate checks the credentials and returns the account with the
// password scrubbed. Unknown usernames and wrong passwords are
// indistinguishable to the caller.
func (s *AccountService) Authenticate(ctx context.Context, username, plain string) (domain.Account, error) {
	a, ok, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return domain.Account{}, report(s.log, "authenticate", err)
	}
	if !ok {
		_ = s.hasher.Verify(plain, s.decoy())
		return domain.Account{}, report(s.log, "authenticate", domain.ErrInvalidCredentials)
	}
	if !s.hasher.Verify(plain, a.Password) {
		return domain.Account{}, report(s.log, "authenticate", domain.ErrInvalidCredentials)
	}
	return a.Scrubbed(), nil
}

// AuthenticateFederated resolves a username asserted by an external identity
// provider. Accounts are never created on this path.
func (s *AccountService) AuthenticateFederated(ctx context.Context, username string) (domain.Account, error) {
	a, ok, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return domain.Account{}, report(s.log, "authenticate_federated", err)
	}
	if !ok {
		return domain.Account{}, report(s.log, "authenticate_federated", domain.ErrInvalidCredentials)
	}
	return a.Scrubbed(), nil
}

// Get returns the account with the given id.
func (s *AccountService) Get(ctx context.Context, id int64) (domain.Account, bool, error) {
	a, ok, err := s.accounts.Get(ctx, id)
	if err != nil || !ok {
		return domain.Account{}, false, report(s.log, "get", err)
	}
	return a.Scrubbed(), true, nil
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	all, err := s.accounts.List(ctx)
	if err != nil {
		return nil, report(s.log, "list", err)
	}
	for i := range all {
		all[i] = all[i].Scrubbed()
	}
	return all, nil
}

// Delete removes an account. Accounts that still own messages are kept and
// ErrConflict is returned.
func (s *AccountService) Delete(ctx context.Context, id int64) (domain.Account, bool, error) {
	a, ok, err := s.accounts.Delete(ctx, id)
	if err != nil || !ok {
		return domain.Account{}, false, report(s.log, "delete", err)
	}
	s.log.Info("account deleted", zap.Int64("account_id", id))
	return a.Scrubbed(), true, nil
}

// ChangePassword replaces the password of account id after checking
// current against the stored hash. A wrong current password yields
// ErrInvalidCredentials and nothing is written.
func (s *AccountService) ChangePassword(ctx context.Context, id int64, current, newPassword string) (domain.Account, error) {
	if err := s.checkPassword(newPassword); err != nil {
		return domain.Account{}, report(s.log, "change_password", err)
	}

	a, ok, err := s.accounts.Get(ctx, id)
	if err != nil {
		return domain.Account{}, report(s.log, "change_password", err)
	}
	if !ok {
		return domain.Account{}, report(s.log, "change_password",
			fmt.Errorf("account %d: %w", id, domain.ErrNotFound))
	}
	if !s.hasher.Verify(current, a.Password) {
		return domain.Account{}, report(s.log, "change_password", domain.ErrInvalidCredentials)
	}

	a.Password = newPassword
	updated, err := s.accounts.Update(ctx, a)
	if err != nil {
		return domain.Account{}, report(s.log, "change_password", err)
	}
	s.log.Info("password changed", zap.Int64("account_id", id))
	return updated.Scrubbed(), nil
}
