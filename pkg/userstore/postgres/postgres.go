// Package postgres provides user persistence backed by PostgreSQL for
// deployments that already run one.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/flowbotio/flowbot/pkg/userstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id           TEXT PRIMARY KEY,
	username          TEXT NOT NULL DEFAULT '',
	first_name        TEXT NOT NULL DEFAULT '',
	last_name         TEXT NOT NULL DEFAULT '',
	registered_at     TIMESTAMPTZ NOT NULL,
	last_interaction  TIMESTAMPTZ NOT NULL,
	interaction_count INTEGER NOT NULL DEFAULT 0,
	user_data         JSONB NOT NULL DEFAULT '{}',
	is_active         BOOLEAN NOT NULL DEFAULT TRUE
);
`

// Store implements userstore.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore connects to the database named by url (postgres://...).
func NewStore(url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply users schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) UpsertUser(ctx context.Context, id, username, firstName, lastName string) error {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, username, first_name, last_name, registered_at, last_interaction, interaction_count)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			last_interaction = EXCLUDED.last_interaction,
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
		FROM users WHERE user_id = $1`, id)

	record := &userstore.UserRecord{}

	var userData []byte

	err := row.Scan(
		&record.UserID,
		&record.Username,
		&record.FirstName,
		&record.LastName,
		&record.RegisteredAt,
		&record.LastInteraction,
		&record.InteractionCount,
		&userData,
		&record.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, userstore.NewUserError("GetUser", id, userstore.ErrUserNotFound)
	}

	if err != nil {
		return nil, userstore.NewUserError("GetUser", id, err)
	}

	if err := json.Unmarshal(userData, &record.UserData); err != nil {
		return nil, userstore.NewUserError("GetUser", id, fmt.Errorf("failed to decode user_data: %w", err))
	}

	return record, nil
}

func (s *Store) UpdateUserField(ctx context.Context, id, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return userstore.NewUserError("UpdateUserField", id, err)
	}

	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, registered_at, last_interaction, interaction_count, user_data)
		VALUES ($1, $2, $3, 0, jsonb_build_object($4::text, $5::jsonb))
		ON CONFLICT (user_id) DO UPDATE SET
			user_data = users.user_data || jsonb_build_object($4::text, $5::jsonb)`,
		id, now, now, key, string(payload))
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
