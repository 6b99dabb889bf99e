package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService(t *testing.T) {
	ctx := context.Background()

	t.Run("subscribe is idempotent", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		user := createUser(t, db, 101, false)
		subs := NewSubscriptionService(db)

		require.NoError(t, subs.Subscribe(ctx, user.ID, c.course.ID))
		require.NoError(t, subs.Subscribe(ctx, user.ID, c.course.ID))

		var count int64
		require.NoError(t, db.Model(&model.Subscription{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		ok, err := subs.IsSubscribed(ctx, user.ID, c.course.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unsubscribe is idempotent", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		user := createUser(t, db, 101, false)
		subs := NewSubscriptionService(db)

		require.NoError(t, subs.Unsubscribe(ctx, user.ID, c.course.ID))
		require.NoError(t, subs.Subscribe(ctx, user.ID, c.course.ID))
		require.NoError(t, subs.Unsubscribe(ctx, user.ID, c.course.ID))
		require.NoError(t, subs.Unsubscribe(ctx, user.ID, c.course.ID))

		ok, err := subs.IsSubscribed(ctx, user.ID, c.course.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("toggle flips the stored state", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		user := createUser(t, db, 101, false)
		subs := NewSubscriptionService(db)

		on, err := subs.Toggle(ctx, user.ID, c.course.ID)
		require.NoError(t, err)
		assert.True(t, on)

		on, err = subs.Toggle(ctx, user.ID, c.course.ID)
		require.NoError(t, err)
		assert.False(t, on)
	})

	t.Run("unknown course", func(t *testing.T) {
		db := openTestDB(t)
		seedCatalog(t, db)
		user := createUser(t, db, 101, false)

		err := NewSubscriptionService(db).Subscribe(ctx, user.ID, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("subscribers snapshot", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		alice := createUser(t, db, 101, false)
		bob := createUser(t, db, 102, false)
		mallory := createUser(t, db, 103, true)
		subs := NewSubscriptionService(db)

		require.NoError(t, subs.Subscribe(ctx, alice.ID, c.course.ID))
		require.NoError(t, subs.Subscribe(ctx, bob.ID, c.course.ID))
		require.NoError(t, subs.Subscribe(ctx, mallory.ID, c.course.ID))
		require.NoError(t, subs.Subscribe(ctx, bob.ID, c.other.ID))

		users, err := subs.ListSubscribers(ctx, c.course.ID)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, alice.ID, users[0].ID)
		assert.Equal(t, bob.ID, users[1].ID)

		others, err := subs.ListSubscribers(ctx, c.other.ID)
		require.NoError(t, err)
		require.Len(t, others, 1)
		assert.Equal(t, bob.ID, others[0].ID)
	})
}
