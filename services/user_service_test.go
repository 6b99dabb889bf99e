package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()

	t.Run("touch creates then refreshes", func(t *testing.T) {
		db := openTestDB(t)
		users := NewUserService(db)
		first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		users.now = func() time.Time { return first }

		created, err := users.Touch(ctx, ChatIdentity{ChatID: 555, Username: "old_name"})
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "old_name", created.Username)
		assert.False(t, created.Blocked)

		users.now = func() time.Time { return first.Add(time.Hour) }
		again, err := users.Touch(ctx, ChatIdentity{ChatID: 555, Username: "new_name"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, again.ID)
		assert.Equal(t, "new_name", again.Username)
		assert.True(t, again.LastActiveAt.After(created.LastActiveAt))
	})

	t.Run("block and get", func(t *testing.T) {
		db := openTestDB(t)
		users := NewUserService(db)

		u, err := users.Touch(ctx, ChatIdentity{ChatID: 556})
		require.NoError(t, err)
		require.NoError(t, users.SetBlocked(ctx, u.ID, true))

		got, err := users.Get(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.Blocked)

		// touching a blocked user keeps the flag
		touched, err := users.Touch(ctx, ChatIdentity{ChatID: 556})
		require.NoError(t, err)
		assert.True(t, touched.Blocked)
	})

	t.Run("unknown user", func(t *testing.T) {
		db := openTestDB(t)
		users := NewUserService(db)

		_, err := users.Get(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, users.SetBlocked(ctx, 42, true), ErrNotFound)
	})
}
