package subscriberrepo

import "errors"

var (
	// ErrNotFound indicates the requested subscriber does not exist.
	ErrNotFound = errors.New("subscriber not found")

	// ErrEmailTaken indicates a subscriber already exists for the provided email.
	// Adapters must return it when the store's unique constraint on email rejects an insert.
	ErrEmailTaken = errors.New("subscriber email already exists")

	// ErrAlreadyExists indicates a subscriber already exists with the provided ID.
	ErrAlreadyExists = errors.New("subscriber already exists")
)
