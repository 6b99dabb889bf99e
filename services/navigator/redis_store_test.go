package navigator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sahilchouksey/study-notes-bot/utils/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real Redis only when REDIS_URL is set
func TestRedisStore(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping redis session store test")
	}

	c, err := cache.NewRedisCache(redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	ctx := context.Background()
	chatID := time.Now().UnixNano()
	t.Cleanup(func() { _ = c.Delete(context.Background(), sessionKey(chatID)) })

	store := NewRedisStore(c, time.Minute)

	s, err := store.Load(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, StateRoot, s.State)

	s.State = StateTermList
	s.Stack = []uint{4}
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, StateTermList, got.State)
	assert.Equal(t, []uint{4}, got.Stack)

	ttl, err := c.TTL(ctx, sessionKey(chatID))
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
