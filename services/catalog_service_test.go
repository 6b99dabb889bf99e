package services

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService(t *testing.T) {
	ctx := context.Background()

	t.Run("lists are ordered", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		catalog := NewCatalogService(db)

		require.NoError(t, db.Create(&model.Subject{Name: "Biology"}).Error)
		subjects, err := catalog.ListSubjects(ctx)
		require.NoError(t, err)
		require.Len(t, subjects, 2)
		assert.Equal(t, "Biology", subjects[0].Name)

		courses, err := catalog.ListCourses(ctx, c.term.ID)
		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Equal(t, "Algorithms", courses[0].Name)
		assert.Equal(t, "Compilers", courses[1].Name)

		earlier := model.Document{
			InstructorID: c.instructor.ID,
			Title:        "Intro",
			Author:       "ann",
			WrittenAt:    c.document.WrittenAt,
			StorageRef:   "notes/intro.pdf",
			PublishedAt:  c.document.PublishedAt.Add(-time.Hour),
		}
		require.NoError(t, db.Create(&earlier).Error)
		docs, err := catalog.ListDocuments(ctx, c.instructor.ID)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "Intro", docs[0].Title)

		instructors, err := catalog.ListInstructors(ctx, c.other.ID)
		require.NoError(t, err)
		assert.Empty(t, instructors)
	})

	t.Run("document context", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)

		got, err := NewCatalogService(db).DocumentContext(ctx, c.document.ID)
		require.NoError(t, err)
		assert.Equal(t, c.instructor.ID, got.Instructor.ID)
		assert.Equal(t, c.course.ID, got.Course.ID)
		assert.Equal(t, c.term.ID, got.Term.ID)
		assert.Equal(t, c.subject.ID, got.Subject.ID)
	})

	t.Run("deleted ancestor is not found", func(t *testing.T) {
		db := openTestDB(t)
		c := seedCatalog(t, db)
		catalog := NewCatalogService(db)

		require.NoError(t, db.Delete(&model.Course{}, c.course.ID).Error)
		_, err := catalog.DocumentContext(ctx, c.document.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = catalog.GetCourse(ctx, c.course.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("zero id", func(t *testing.T) {
		db := openTestDB(t)
		_, err := NewCatalogService(db).GetSubject(ctx, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
