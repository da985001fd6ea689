package session

import "context"

// Store provides per-user sessions with per-key serialization. Handlers for
// the same user may race on overlapping platform deliveries, so every read
// and mutation of a session goes through With, which runs fn as the sole
// owner of that user's record. A bare shared map is deliberately not part of
// this contract.
type Store interface {
	// With loads (creating if absent) the user's session, runs fn with
	// exclusive ownership, and persists the mutated session when fn returns
	// nil. Concurrent calls for the same user serialize; calls for different
	// users proceed in parallel.
	With(ctx context.Context, userID string, fn func(*Session) error) error

	// Get returns a snapshot of the user's session, or a fresh empty session
	// if none exists yet. The snapshot is not written back.
	Get(ctx context.Context, userID string) (*Session, error)

	// Reset discards the user's session.
	Reset(ctx context.Context, userID string) error

	Close() error
}
