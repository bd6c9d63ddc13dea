// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"socialmedia/internal/domain"
	"socialmedia/internal/security/password"
)

// DB implements an in-memory database storage. It enforces the same
// constraints as the SQL schema: unique usernames, posted_by must reference
// an account, and accounts that own messages cannot be deleted.
type DB struct {
	mu       sync.Mutex
	hasher   password.Hasher
	accounts []domain.Account
	messages []domain.Message

	accountIDCounter int64
	messageIDCounter int64
}

// New creates a new in-memory database that hashes passwords with hasher.
func New(hasher password.Hasher) *DB {
	return &DB{hasher: hasher}
}

// Ensure interfaces are met.
var _ domain.AccountRepository = (*AccountRepo)(nil)
var _ domain.MessageRepository = (*MessageRepo)(nil)

// --- AccountRepository ---

// AccountRepo implements account persistence.
type AccountRepo struct {
	db *DB
}

// Accounts returns the account repository view of db.
func (db *DB) Accounts() *AccountRepo {
	return &AccountRepo{db: db}
}

// Get retrieves an account by ID.
func (r *AccountRepo) Get(ctx context.Context, id int64) (domain.Account, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if i := r.db.accountIndex(id); i >= 0 {
		return r.db.accounts[i], true, nil
	}
	return domain.Account{}, false, nil
}

// FindByUsername retrieves an account by exact username.
func (r *AccountRepo) FindByUsername(ctx context.Context, username string) (domain.Account, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, a := range r.db.accounts {
		if a.Username == username {
			return a, true, nil
		}
	}
	return domain.Account{}, false, nil
}

// List returns every account.
func (r *AccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]domain.Account, len(r.db.accounts))
	copy(result, r.db.accounts)
	return result, nil
}

// Create hashes the password and stores a new account.
func (r *AccountRepo) Create(ctx context.Context, a domain.Account) (domain.Account, error) {
	hash, err := r.db.hash(a.Password)
	if err != nil {
		return domain.Account{}, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.accounts {
		if existing.Username == a.Username {
			return domain.Account{}, fmt.Errorf("account.create: %w", domain.ErrConflict)
		}
	}

	r.db.accountIDCounter++
	created := domain.Account{
		AccountID: r.db.accountIDCounter,
		Username:  a.Username,
		Password:  hash,
	}
	r.db.accounts = append(r.db.accounts, created)
	return created, nil
}

// Update re-hashes the password and writes username and password. A missing
// id is a no-op.
func (r *AccountRepo) Update(ctx context.Context, a domain.Account) (domain.Account, error) {
	hash, err := r.db.hash(a.Password)
	if err != nil {
		return domain.Account{}, err
	}
	updated := domain.Account{AccountID: a.AccountID, Username: a.Username, Password: hash}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.accountIndex(a.AccountID)
	if i < 0 {
		return updated, nil
	}
	for j, existing := range r.db.accounts {
		if j != i && existing.Username == a.Username {
			return domain.Account{}, fmt.Errorf("account.update: %w", domain.ErrConflict)
		}
	}
	r.db.accounts[i] = updated
	return updated, nil
}

// Delete removes an account. Accounts that still own messages yield
// ErrConflict.
func (r *AccountRepo) Delete(ctx context.Context, id int64) (domain.Account, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.accountIndex(id)
	if i < 0 {
		return domain.Account{}, false, nil
	}
	for _, m := range r.db.messages {
		if m.PostedBy == id {
			return domain.Account{}, false, fmt.Errorf("account %d still has messages: %w", id, domain.ErrConflict)
		}
	}
	a := r.db.accounts[i]
	r.db.accounts = append(r.db.accounts[:i], r.db.accounts[i+1:]...)
	return a, true, nil
}

// --- MessageRepository ---

// MessageRepo implements message persistence.
type MessageRepo struct {
	db *DB
}

// Messages returns the message repository view of db.
func (db *DB) Messages() *MessageRepo {
	return &MessageRepo{db: db}
}

// Get retrieves a message by ID.
func (r *MessageRepo) Get(ctx context.Context, id int64) (domain.Message, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if i := r.db.messageIndex(id); i >= 0 {
		return r.db.messages[i], true, nil
	}
	return domain.Message{}, false, nil
}

// List returns every message.
func (r *MessageRepo) List(ctx context.Context) ([]domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]domain.Message, len(r.db.messages))
	copy(result, r.db.messages)
	return result, nil
}

// FindAllByAuthor returns the messages posted by accountID.
func (r *MessageRepo) FindAllByAuthor(ctx context.Context, accountID int64) ([]domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := make([]domain.Message, 0)
	for _, m := range r.db.messages {
		if m.PostedBy == accountID {
			result = append(result, m)
		}
	}
	return result, nil
}

// Create stores a new message. posted_by must reference an account.
func (r *MessageRepo) Create(ctx context.Context, m domain.Message) (domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.accountIndex(m.PostedBy) < 0 {
		return domain.Message{}, domain.Invalid("posted_by %d does not reference an existing account", m.PostedBy)
	}

	r.db.messageIDCounter++
	created := domain.Message{
		MessageID:       r.db.messageIDCounter,
		PostedBy:        m.PostedBy,
		MessageText:     m.MessageText,
		TimePostedEpoch: m.TimePostedEpoch,
	}
	r.db.messages = append(r.db.messages, created)
	return created, nil
}

// Update writes message_text only. A missing id returns m unchanged.
func (r *MessageRepo) Update(ctx context.Context, m domain.Message) (domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.messageIndex(m.MessageID)
	if i < 0 {
		return m, nil
	}
	r.db.messages[i].MessageText = m.MessageText
	return r.db.messages[i], nil
}

// Delete removes a message and returns its last state.
func (r *MessageRepo) Delete(ctx context.Context, id int64) (domain.Message, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.messageIndex(id)
	if i < 0 {
		return domain.Message{}, false, nil
	}
	m := r.db.messages[i]
	r.db.messages = append(r.db.messages[:i], r.db.messages[i+1:]...)
	return m, true, nil
}

// accountIndex and messageIndex must be called with mu held.
func (db *DB) accountIndex(id int64) int {
	for i, a := range db.accounts {
		if a.AccountID == id {
			return i
		}
	}
	return -1
}

func (db *DB) messageIndex(id int64) int {
	for i, m := range db.messages {
		if m.MessageID == id {
			return i
		}
	}
	return -1
}

func (db *DB) hash(plain string) (string, error) {
	hash, err := db.hasher.Hash(plain)
	switch {
	case errors.Is(err, password.ErrEmpty), errors.Is(err, password.ErrTooLong):
		return "", domain.Invalid("password: %v", err)
	case err != nil:
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
