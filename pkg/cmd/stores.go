// Package cmd provides common initialization functions for command-line
// applications and generated bot programs.
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/flowbotio/flowbot/pkg/session"
	"github.com/flowbotio/flowbot/pkg/userstore"
	"github.com/flowbotio/flowbot/pkg/userstore/file"
	"github.com/flowbotio/flowbot/pkg/userstore/postgres"
	"github.com/flowbotio/flowbot/pkg/userstore/sqlite"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// NewUserStore picks a user store driver from the URL scheme. An empty URL
// selects the noop store; the bot then runs with in-memory sessions only.
func NewUserStore(databaseURL string) (userstore.Store, error) {
	switch parseProvider(databaseURL) {
	case "":
		return userstore.NewNoopStore(), nil
	case "file":
		return file.NewStore(databaseURL), nil
	case "sqlite":
		return sqlite.NewStore(strings.TrimPrefix(databaseURL, "sqlite://"))
	case "postgres", "postgresql":
		return postgres.NewStore(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported user store provider in %q", databaseURL)
	}
}

// NewSessionStore picks a session store from the URL scheme. An empty URL
// selects the in-memory store.
func NewSessionStore(sessionURL string) (session.Store, error) {
	switch parseProvider(sessionURL) {
	case "", "memory":
		return session.NewMemoryStore(), nil
	case "redis", "rediss":
		return session.NewRedisStore(sessionURL, defaultSessionTTL)
	default:
		return nil, fmt.Errorf("unsupported session store provider in %q", sessionURL)
	}
}

func parseProvider(url string) string {
	if url == "" {
		return ""
	}

	scheme, _, found := strings.Cut(url, "://")
	if !found {
		// Bare paths behave as file roots, matching the file store's own
		// handling.
		return "file"
	}

	return scheme
}
