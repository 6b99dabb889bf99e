package services

import (
	"context"
	"sync"
	"testing"

	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRating(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregate and average", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		user := createUser(t, db, 101, false)
		ratings := NewRatingService(db, false)

		summary, err := ratings.RecordRating(ctx, user.ID, c.document.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), summary.Sum)
		assert.Equal(t, int64(1), summary.Count)

		// repeat votes by the same user count again
		summary, err = ratings.RecordRating(ctx, user.ID, c.document.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(7), summary.Sum)
		assert.Equal(t, int64(2), summary.Count)
		assert.InDelta(t, 3.5, summary.Average, 1e-9)
	})

	t.Run("out of range values are rejected", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		ratings := NewRatingService(db, false)

		for _, v := range []int{0, 6, -1} {
			_, err := ratings.RecordRating(ctx, 1, c.document.ID, v)
			assert.ErrorIs(t, err, ErrInvalidRating, "value %d", v)
		}

		var doc model.Document
		require.NoError(t, db.First(&doc, c.document.ID).Error)
		assert.Zero(t, doc.RatingCount)
	})

	t.Run("unknown document", func(t *testing.T) {
		db := openTestDB(t)
		seedCatalog(t, db)

		_, err := NewRatingService(db, false).RecordRating(ctx, 1, 9999, 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent ratings are never lost", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		ratings := NewRatingService(db, false)

		const raters = 25
		var wg sync.WaitGroup
		var want int64
		for i := 0; i < raters; i++ {
			value := i%MaxRating + 1
			want += int64(value)
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ratings.RecordRating(ctx, uint(i+1), c.document.ID, value)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		var doc model.Document
		require.NoError(t, db.First(&doc, c.document.ID).Error)
		assert.Equal(t, want, doc.RatingSum)
		assert.Equal(t, int64(raters), doc.RatingCount)
	})

	t.Run("audit rows are optional", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		user := createUser(t, db, 101, false)

		_, err := NewRatingService(db, false).RecordRating(ctx, user.ID, c.document.ID, 4)
		require.NoError(t, err)
		var count int64
		require.NoError(t, db.Model(&model.Rating{}).Count(&count).Error)
		assert.Zero(t, count)

		_, err = NewRatingService(db, true).RecordRating(ctx, user.ID, c.document.ID, 4)
		require.NoError(t, err)
		require.NoError(t, db.Model(&model.Rating{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}
