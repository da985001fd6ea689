package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// MemoryStore is the in-process session store: a sharded mutex map keyed by
// user id. A user's shard lock is held for the duration of With, which gives
// the per-session serialization the engine depends on.
type MemoryStore struct {
	shards [shardCount]*shard
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{}
	for i := range store.shards {
		store.shards[i] = &shard{sessions: make(map[string]*Session)}
	}

	return store
}

func (s *MemoryStore) shardFor(userID string) *shard {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(userID))

	return s.shards[hash.Sum32()%shardCount]
}

// With runs fn as the exclusive owner of the user's session.
func (s *MemoryStore) With(_ context.Context, userID string, fn func(*Session) error) error {
	sh := s.shardFor(userID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[userID]
	if !ok {
		sess = NewSession(userID)
		sh.sessions[userID] = sess
	}

	if err := fn(sess); err != nil {
		return err
	}

	sess.UpdatedAt = time.Now().UTC()

	return nil
}

// Get returns a copy of the user's session so callers cannot mutate shared
// state outside With.
func (s *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	sh := s.shardFor(userID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[userID]
	if !ok {
		return NewSession(userID), nil
	}

	return copySession(sess), nil
}

// Reset discards the user's session.
func (s *MemoryStore) Reset(_ context.Context, userID string) error {
	sh := s.shardFor(userID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.sessions, userID)

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func copySession(sess *Session) *Session {
	clone := *sess

	clone.Vars = make(map[string]any, len(sess.Vars))
	for k, v := range sess.Vars {
		clone.Vars[k] = v
	}

	if sess.Pending != nil {
		pending := *sess.Pending
		pending.Selected = append([]int(nil), sess.Pending.Selected...)
		clone.Pending = &pending
	}

	return &clone
}
