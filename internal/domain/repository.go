package domain

import "context"

// Repository is the storage contract shared by every entity type.
//
// Get and Delete report absence through the boolean result, so absence is
// never an error. Errors are either storage failures wrapping ErrStorage or
// rejections of the write itself, wrapping ErrConflict or ErrValidation.
type Repository[T any] interface {
	Get(ctx context.Context, id int64) (T, bool, error)
	List(ctx context.Context) ([]T, error)
	// Create persists a new row and returns it with the storage-assigned id.
	// Any id on the input is ignored.
	Create(ctx context.Context, entity T) (T, error)
	// Update persists the mutable fields of entity. Updating a missing id is
	// a no-op, not an error.
	Update(ctx context.Context, entity T) (T, error)
	// Delete removes the row and returns its pre-deletion snapshot.
	Delete(ctx context.Context, id int64) (T, bool, error)
}
