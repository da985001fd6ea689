// Package file provides file-based user persistence: one JSON document per
// user under a root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/flowbotio/flowbot/pkg/userstore"
)

// Store implements userstore.Store on the local file system.
type Store struct {
	root string

	mu sync.Mutex // serializes read-modify-write cycles across goroutines
}

// NewStore creates a file store rooted at the given directory, accepting a
// file:// prefixed URL.
func NewStore(root string) *Store {
	cleanRoot := strings.TrimPrefix(root, "file://")

	return &Store{root: cleanRoot}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.root, "users", id+".json")
}

func (s *Store) UpsertUser(ctx context.Context, id, username, firstName, lastName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.read(id)
	if err != nil && !userstore.IsUserNotFound(err) {
		return userstore.NewUserError("UpsertUser", id, err)
	}

	now := time.Now().UTC()

	if record == nil {
		record = &userstore.UserRecord{
			UserID:       id,
			RegisteredAt: now,
			UserData:     make(map[string]any),
			IsActive:     true,
		}
	}

	record.Username = username
	record.FirstName = firstName
	record.LastName = lastName
	record.LastInteraction = now
	record.InteractionCount++

	if err := s.write(record); err != nil {
		return userstore.NewUserError("UpsertUser", id, err)
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*userstore.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.read(id)
	if err != nil {
		return nil, userstore.NewUserError("GetUser", id, err)
	}

	return record, nil
}

func (s *Store) UpdateUserField(ctx context.Context, id, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.read(id)
	if err != nil {
		if userstore.IsUserNotFound(err) {
			// Field writes may arrive before the first upsert lands; create
			// the record rather than dropping the collected value.
			record = &userstore.UserRecord{
				UserID:       id,
				RegisteredAt: time.Now().UTC(),
				UserData:     make(map[string]any),
				IsActive:     true,
			}
		} else {
			return userstore.NewUserError("UpdateUserField", id, err)
		}
	}

	if record.UserData == nil {
		record.UserData = make(map[string]any)
	}

	record.UserData[key] = value

	if err := s.write(record); err != nil {
		return userstore.NewUserError("UpdateUserField", id, err)
	}

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) read(id string) (*userstore.UserRecord, error) {
	payload, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, userstore.ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read user file: %w", err)
	}

	record := &userstore.UserRecord{}
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, fmt.Errorf("failed to decode user file: %w", err)
	}

	return record, nil
}

func (s *Store) write(record *userstore.UserRecord) error {
	dir := filepath.Dir(s.path(record.UserID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create users directory: %w", err)
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}

	if err := os.WriteFile(s.path(record.UserID), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write user file: %w", err)
	}

	return nil
}
