package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flowbot:session:"

// RedisStore keeps sessions as JSON blobs in Redis so they survive process
// restarts. Read-modify-write cycles in With are guarded by the same sharded
// mutex scheme MemoryStore uses, so memory stays bounded regardless of how
// many users the bot sees; the store assumes a single engine process owns a
// given bot's sessions, which matches how generated programs are deployed.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	locks  [shardCount]sync.Mutex
}

// NewRedisStore connects to the Redis instance named by url
// (redis://host:port/db). A zero ttl keeps sessions forever.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) lockFor(userID string) *sync.Mutex {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(userID))

	return &s.locks[hash.Sum32()%shardCount]
}

// With runs fn as the exclusive owner of the user's session and writes the
// result back.
func (s *RedisStore) With(ctx context.Context, userID string, fn func(*Session) error) error {
	lock := s.lockFor(userID)

	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	if err := fn(sess); err != nil {
		return err
	}

	sess.UpdatedAt = time.Now().UTC()

	return s.save(ctx, sess)
}

// Get returns a snapshot of the user's session.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	return s.load(ctx, userID)
}

// Reset discards the user's session.
func (s *RedisStore) Reset(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", userID, err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) load(ctx context.Context, userID string) (*Session, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewSession(userID), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", userID, err)
	}

	sess := &Session{}
	if err := json.Unmarshal(payload, sess); err != nil {
		return nil, fmt.Errorf("failed to decode session for %s: %w", userID, err)
	}

	return sess, nil
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session for %s: %w", sess.UserID, err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+sess.UserID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session for %s: %w", sess.UserID, err)
	}

	return nil
}
