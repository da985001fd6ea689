// Package userstore provides the external persistence collaborator holding
// per-user records and collected variables.
package userstore

import (
	"context"
	"time"
)

// UserRecord is the persisted view of one end user.
type UserRecord struct {
	UserID           string         `json:"user_id"`
	Username         string         `json:"username,omitempty"`
	FirstName        string         `json:"first_name,omitempty"`
	LastName         string         `json:"last_name,omitempty"`
	RegisteredAt     time.Time      `json:"registered_at"`
	LastInteraction  time.Time      `json:"last_interaction"`
	InteractionCount int            `json:"interaction_count"`
	UserData         map[string]any `json:"user_data,omitempty"`
	IsActive         bool           `json:"is_active"`
}

// Store is the persistence surface the flow engine calls. Callers treat every
// failure as degrade-and-continue: a failed write keeps the value in the
// in-memory session only and never blocks the conversational turn.
type Store interface {
	// UpsertUser creates the record on first contact and refreshes identity
	// fields, last_interaction, and interaction_count on every later one.
	UpsertUser(ctx context.Context, id, username, firstName, lastName string) error

	// GetUser returns the record or ErrUserNotFound.
	GetUser(ctx context.Context, id string) (*UserRecord, error)

	// UpdateUserField writes one collected key/value pair into user_data.
	UpdateUserField(ctx context.Context, id, key string, value any) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
