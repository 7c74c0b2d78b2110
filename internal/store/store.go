package store

import (
	"context"
	"errors"
)

// ErrUnavailable marks a failed read or write against the backing store.
// Store failures are never masked: losing an append silently would corrupt
// the append-only context/history invariant, so callers surface this to the
// enclosing request instead of dropping the write.
var ErrUnavailable = errors.New("storage unavailable")

// ErrDuplicateUser is returned when a signup reuses an existing user ID.
var ErrDuplicateUser = errors.New("user id already taken")

// ListStore is the append-only list primitive backing both the per-user
// conversation context and the per-user emotion history. Appends are atomic
// at the granularity of a single insert; ordering within a key is insertion
// order.
type ListStore interface {
	// Append adds one serialized record to the end of the keyed list.
	Append(ctx context.Context, key string, value []byte) error

	// Last returns at most n of the most recent entries, oldest-first
	// within the returned window. A missing key yields an empty result.
	Last(ctx context.Context, key string, n int) ([][]byte, error)

	// Trim discards the oldest entries so at most max remain. Trimmed
	// entries become silently unreachable; there is no pagination cursor.
	Trim(ctx context.Context, key string, max int) error

	// Len reports the number of retained entries for the key.
	Len(ctx context.Context, key string) (int, error)
}

// User is one account row, persisted by the signup glue.
type User struct {
	UserID       string
	Name         string
	PasswordHash string
	Email        string
	Gender       string
	BirthDate    string
}

// UserRepo persists accounts.
type UserRepo interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID string) (*User, error)
}
