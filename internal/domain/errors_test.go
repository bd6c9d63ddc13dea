package domain_test

import (
	"database/sql"
	"errors"
	"testing"

	"socialmedia/internal/domain"
)

func TestStorageError(t *testing.T) {
	cause := sql.ErrConnDone
	err := domain.NewStorageError("account.get", cause)

	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if domain.IsNotFound(err) {
		t.Fatal("storage failure must not read as not found")
	}

	var se *domain.StorageError
	if !errors.As(err, &se) || se.Op != "account.get" {
		t.Fatalf("expected *StorageError with op, got %#v", err)
	}
}

func TestNewStorageError_Nil(t *testing.T) {
	if err := domain.NewStorageError("noop", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"invalid", domain.Invalid("username must be %d-%d characters", 1, 254), domain.IsValidation},
		{"conflict", domain.ErrConflict, domain.IsConflict},
		{"not found", domain.ErrNotFound, domain.IsNotFound},
		{"storage", domain.NewStorageError("x", errors.New("boom")), domain.IsStorage},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.is(tc.err) {
				t.Errorf("predicate rejected %v", tc.err)
			}
		})
	}
}
