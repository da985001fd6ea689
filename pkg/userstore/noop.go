package userstore

import "context"

// NoopStore is used when no persistence collaborator is configured: every
// write succeeds without effect and every read reports not found, so the
// engine keeps collected values in sessions only.
type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (n *NoopStore) UpsertUser(_ context.Context, _, _, _, _ string) error {
	return nil
}

func (n *NoopStore) GetUser(_ context.Context, id string) (*UserRecord, error) {
	return nil, NewUserError("GetUser", id, ErrUserNotFound)
}

func (n *NoopStore) UpdateUserField(_ context.Context, _, _ string, _ any) error {
	return nil
}

func (n *NoopStore) HealthCheck(_ context.Context) error {
	return nil
}

func (n *NoopStore) Close(_ context.Context) error {
	return nil
}
