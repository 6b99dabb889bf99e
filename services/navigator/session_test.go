package navigator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("unknown chat starts at root", func(t *testing.T) {
		s, err := store.Load(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, StateRoot, s.State)
		assert.Empty(t, s.Stack)
	})

	t.Run("loaded sessions are copies", func(t *testing.T) {
		s := NewSession(2)
		s.State = StateTermList
		s.Stack = []uint{9}
		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, 2)
		require.NoError(t, err)
		loaded.Stack[0] = 10
		loaded.push(11)

		again, err := store.Load(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []uint{9}, again.Stack)
	})

	t.Run("prune drops idle sessions", func(t *testing.T) {
		now := time.Now()
		old := NewSession(3)
		old.UpdatedAt = now.Add(-2 * time.Hour)
		fresh := NewSession(4)
		fresh.UpdatedAt = now
		require.NoError(t, store.Save(ctx, old))
		require.NoError(t, store.Save(ctx, fresh))

		before := store.Len()
		removed := store.Prune(now.Add(-time.Hour))
		assert.GreaterOrEqual(t, removed, 1)
		assert.Equal(t, before-removed, store.Len())

		s, err := store.Load(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, fresh.UpdatedAt.Unix(), s.UpdatedAt.Unix())
	})
}

func TestSessionStack(t *testing.T) {
	s := NewSession(1)
	for i := uint(1); i <= MaxDepth; i++ {
		require.True(t, s.push(i))
	}
	assert.False(t, s.push(99))
	assert.Equal(t, uint(3), s.ancestor(LevelCourse))
	assert.Zero(t, s.ancestor(Level(0)))

	s.pop()
	assert.Equal(t, []uint{1, 2, 3}, s.Stack)
	s.reset()
	assert.Equal(t, StateRoot, s.State)
	assert.Empty(t, s.Stack)
}
