// Package sqlite provides user persistence backed by an embedded SQLite
// database, the default for single-binary bot deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/flowbotio/flowbot/pkg/userstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id           TEXT PRIMARY KEY,
	username          TEXT NOT NULL DEFAULT '',
	first_name        TEXT NOT NULL DEFAULT '',
	last_name         TEXT NOT NULL DEFAULT '',
	registered_at     TIMESTAMP NOT NULL,
	last_interaction  TIMESTAMP NOT NULL,
	interaction_count INTEGER NOT NULL DEFAULT 0,
	user_data         TEXT NOT NULL DEFAULT '{}',
	is_active         INTEGER NOT NULL DEFAULT 1
);
`

// Store implements userstore.Store on SQLite via the cgo-free modernc driver.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at the given path,
// accepting a sqlite:// prefixed URL.
func NewStore(path string) (*Store, error) {
	cleanPath := strings.TrimPrefix(path, "sqlite://")

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply users schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) UpsertUser(ctx context.Context, id, username, firstName, lastName string) error {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name, last_name, registered_at, last_interaction, interaction_count, user_data, is_active)
		VALUES (?, ?, ?, ?, ?, ?, 1, '{}', 1)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_interaction = excluded.last_interaction,
			interaction_count = users.interaction_count + 1`,
		id, username, firstName, lastName, now, now)
	if err != nil {
		return userstore.NewUserError("UpsertUser", id, err)
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*userstore.UserRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, username, first_name, last_name, registered_at, last_interaction, interaction_count, user_data, is_active
		FROM users WHERE user_id = ?`, id)

	record := &userstore.UserRecord{}

	var userData string

	var isActive int

	err := row.Scan(
		&record.UserID,
		&record.Username,
		&record.FirstName,
		&record.LastName,
		&record.RegisteredAt,
		&record.LastInteraction,
		&record.InteractionCount,
		&userData,
		&isActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, userstore.NewUserError("GetUser", id, userstore.ErrUserNotFound)
	}

	if err != nil {
		return nil, userstore.NewUserError("GetUser", id, err)
	}

	record.IsActive = isActive != 0

	if err := json.Unmarshal([]byte(userData), &record.UserData); err != nil {
		return nil, userstore.NewUserError("GetUser", id, fmt.Errorf("failed to decode user_data: %w", err))
	}

	return record, nil
}

func (s *Store) UpdateUserField(ctx context.Context, id, key string, value any) error {
	record, err := s.GetUser(ctx, id)
	if err != nil && !userstore.IsUserNotFound(err) {
		return userstore.NewUserError("UpdateUserField", id, err)
	}

	userData := map[string]any{}
	if record != nil && record.UserData != nil {
		userData = record.UserData
	}

	userData[key] = value

	payload, err := json.Marshal(userData)
	if err != nil {
		return userstore.NewUserError("UpdateUserField", id, err)
	}

	now := time.Now().UTC()

	// Creates the row when the field write beats the first upsert.
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, registered_at, last_interaction, interaction_count, user_data, is_active)
		VALUES (?, ?, ?, 0, ?, 1)
		ON CONFLICT(user_id) DO UPDATE SET user_data = excluded.user_data`,
		id, now, now, string(payload))
	if err != nil {
		return userstore.NewUserError("UpdateUserField", id, err)
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}
