// Package domain contains the core business entities and interfaces.
package domain

import "context"

// Account represents a registered user of the platform.
//
// Password holds the plaintext on a candidate coming from a caller and the
// salted hash once the account has been persisted.
type Account struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username" validate:"notblank,min=1,max=254"`
	Password  string `json:"-" validate:"notblank,min=4,max=254"`
}

// Scrubbed returns a copy of the account with the password field cleared.
func (a Account) Scrubbed() Account {
	a.Password = ""
	return a
}

// AccountRepository defines the port for account persistence operations.
type AccountRepository interface {
	Repository[Account]
	FindByUsername(ctx context.Context, username string) (Account, bool, error)
}

// AccountGetter is the read-only slice of AccountRepository other services
// depend on.
type AccountGetter interface {
	Get(ctx context.Context, id int64) (Account, bool, error)
}
