package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbotio/flowbot/pkg/models"
)

func TestMemoryStore_With_CreatesAndPersists(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.With(ctx, "u1", func(sess *Session) error {
		sess.SetVar("name", "Ana")
		sess.Arm("ask", &models.InputSpec{ResponseType: models.ResponseTypeText})

		return nil
	})
	require.NoError(t, err)

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", sess.Vars["name"])
	require.NotNil(t, sess.Pending)
	assert.Equal(t, "ask", sess.Pending.NodeID)
}

func TestMemoryStore_With_ErrorDiscardsNothingElse(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.With(ctx, "u1", func(sess *Session) error {
		sess.SetVar("kept", "yes")

		return nil
	}))

	err := store.With(ctx, "u1", func(sess *Session) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "yes", sess.Vars["kept"])
}

func TestMemoryStore_Get_ReturnsSnapshot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.With(ctx, "u1", func(sess *Session) error {
		sess.SetVar("n", "1")

		return nil
	}))

	snapshot, err := store.Get(ctx, "u1")
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the stored session.
	snapshot.SetVar("n", "2")
	snapshot.Arm("x", &models.InputSpec{ResponseType: models.ResponseTypeText})

	fresh, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "1", fresh.Vars["n"])
	assert.Nil(t, fresh.Pending)
}

func TestMemoryStore_Get_UnknownUserIsEmptySession(t *testing.T) {
	store := NewMemoryStore()

	sess, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", sess.UserID)
	assert.Empty(t, sess.Vars)
}

func TestMemoryStore_Reset(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.With(ctx, "u1", func(sess *Session) error {
		sess.SetVar("n", "1")

		return nil
	}))
	require.NoError(t, store.Reset(ctx, "u1"))

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sess.Vars)
}

func TestMemoryStore_With_SerializesPerUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const rounds = 200

	var wg sync.WaitGroup

	for range rounds {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = store.With(ctx, "u1", func(sess *Session) error {
				count, _ := sess.Vars["count"].(int)
				sess.SetVar("count", count+1)

				return nil
			})
		}()
	}

	wg.Wait()

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rounds, sess.Vars["count"])
}
