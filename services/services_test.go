package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sahilchouksey/study-notes-bot/database"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite("file:"+name+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type testCatalog struct {
	subject    model.Subject
	term       model.Term
	course     model.Course
	other      model.Course
	instructor model.Instructor
	document   model.Document
}

func seedCatalog(t *testing.T, db *gorm.DB) testCatalog {
	t.Helper()
	var c testCatalog

	c.subject = model.Subject{Name: "Computer Science"}
	require.NoError(t, db.Create(&c.subject).Error)
	c.term = model.Term{SubjectID: c.subject.ID, Name: "Fall"}
	require.NoError(t, db.Create(&c.term).Error)
	c.course = model.Course{TermID: c.term.ID, Name: "Algorithms"}
	require.NoError(t, db.Create(&c.course).Error)
	c.other = model.Course{TermID: c.term.ID, Name: "Compilers"}
	require.NoError(t, db.Create(&c.other).Error)
	c.instructor = model.Instructor{CourseID: c.course.ID, Name: "Dr. A"}
	require.NoError(t, db.Create(&c.instructor).Error)

	written := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	c.document = model.Document{
		InstructorID: c.instructor.ID,
		Title:        "Sorting",
		Author:       "bob",
		WrittenAt:    written,
		Description:  "Merge sort and quicksort",
		StorageRef:   "notes/sorting.pdf",
		PublishedAt:  written.Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(&c.document).Error)
	return c
}

func createUser(t *testing.T, db *gorm.DB, chatID int64, blocked bool) model.User {
	t.Helper()
	user := model.User{ChatID: chatID, Username: "user", Blocked: blocked, LastActiveAt: time.Now()}
	require.NoError(t, db.Create(&user).Error)
	return user
}

type recordingMessenger struct {
	mu       sync.Mutex
	texts    map[int64][]string
	failFor  map[int64]error
	blockFor map[int64]bool
	delay    time.Duration
	username string

	inflight    int
	maxInflight int
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{
		texts:    make(map[int64][]string),
		failFor:  make(map[int64]error),
		blockFor: make(map[int64]bool),
		username: "notes_test_bot",
	}
}

func (m *recordingMessenger) SendText(ctx context.Context, chatID int64, text string, _ *Keyboard) error {
	m.mu.Lock()
	m.inflight++
	if m.inflight > m.maxInflight {
		m.maxInflight = m.inflight
	}
	block, fail, delay := m.blockFor[chatID], m.failFor[chatID], m.delay
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail != nil {
		return fail
	}

	m.mu.Lock()
	m.texts[chatID] = append(m.texts[chatID], text)
	m.mu.Unlock()
	return nil
}

func (m *recordingMessenger) SendDocument(context.Context, int64, FileUpload) (MessageRef, error) {
	return MessageRef{}, errors.New("not supported")
}

func (m *recordingMessenger) ReplyText(context.Context, MessageRef, string, *Keyboard) error {
	return errors.New("not supported")
}

func (m *recordingMessenger) BotUsername(context.Context) (string, error) {
	if m.username == "" {
		return "", errors.New("username unavailable")
	}
	return m.username, nil
}

func (m *recordingMessenger) received(chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts[chatID]...)
}
