package userstore

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound indicates no record exists for the given user id.
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable indicates the backing store cannot be reached.
	// Callers degrade to in-memory state; nothing retries or blocks on it.
	ErrStoreUnavailable = errors.New("user store unavailable")
)

// UserError wraps user-store errors with operation context.
type UserError struct {
	Op     string // Operation being performed ("UpsertUser", "GetUser", ...)
	UserID string
	Err    error
}

func (e *UserError) Error() string {
	return fmt.Sprintf("%s failed for user %s: %v", e.Op, e.UserID, e.Err)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func (e *UserError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewUserError creates a user error with context.
func NewUserError(op, userID string, err error) *UserError {
	return &UserError{Op: op, UserID: userID, Err: err}
}

// IsUserNotFound checks if an error indicates a missing user record.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsStoreUnavailable checks if an error indicates an unreachable store.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
