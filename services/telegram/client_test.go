package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sahilchouksey/study-notes-bot/database"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/services"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type botAPIStub struct {
	mu       sync.Mutex
	requests map[string][]map[string]string
}

func newBotAPIStub(t *testing.T) (*botAPIStub, *httptest.Server) {
	stub := &botAPIStub{requests: make(map[string][]map[string]string)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		require.NoError(t, r.ParseForm())

		form := make(map[string]string)
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		stub.mu.Lock()
		stub.requests[method] = append(stub.requests[method], form)
		stub.mu.Unlock()

		var result interface{}
		switch method {
		case "getMe":
			result = map[string]interface{}{"id": 1, "is_bot": true, "first_name": "Notes", "username": "notes_bot"}
		case "sendMessage":
			result = map[string]interface{}{
				"message_id": 77,
				"date":       0,
				"chat":       map[string]interface{}{"id": 100, "type": "private"},
				"text":       form["text"],
			}
		default:
			result = true
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func (s *botAPIStub) last(method string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := s.requests[method]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

func TestClient(t *testing.T) {
	stub, srv := newBotAPIStub(t)

	client, err := NewClient(Config{Token: "123:abc", Endpoint: srv.URL + "/bot%s/%s"}, logger.Nop())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("bot username", func(t *testing.T) {
		name, err := client.BotUsername(ctx)
		require.NoError(t, err)
		assert.Equal(t, "notes_bot", name)
	})

	t.Run("send text with keyboard", func(t *testing.T) {
		kb := &services.Keyboard{Rows: [][]services.Button{
			{{Text: "Algorithms", Data: "sel:course:12"}},
			{{Text: "Open", URL: "https://example.com"}},
		}}
		require.NoError(t, client.SendText(ctx, 100, "pick one", kb))

		req := stub.last("sendMessage")
		require.NotNil(t, req)
		assert.Equal(t, "100", req["chat_id"])
		assert.Equal(t, "pick one", req["text"])
		assert.Contains(t, req["reply_markup"], `"callback_data":"sel:course:12"`)
		assert.Contains(t, req["reply_markup"], `"url":"https://example.com"`)
	})

	t.Run("reply", func(t *testing.T) {
		require.NoError(t, client.ReplyText(ctx, services.MessageRef{ChatID: 100, MessageID: 5}, "rate it", nil))
		req := stub.last("sendMessage")
		assert.Equal(t, "5", req["reply_to_message_id"])
		assert.Empty(t, req["reply_markup"])
	})

	t.Run("webhook registration", func(t *testing.T) {
		require.NoError(t, client.SetWebhook(ctx, "https://bot.example.com/telegram/webhook", "s3cret"))
		req := stub.last("setWebhook")
		assert.Equal(t, "https://bot.example.com/telegram/webhook", req["url"])
		assert.Equal(t, "s3cret", req["secret_token"])
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, client.SendText(cctx, 100, "late", nil), context.Canceled)
	})
}

// countingTransport tracks how many sendMessage requests are outstanding at once
type countingTransport struct {
	base http.RoundTripper

	mu          sync.Mutex
	inflight    int
	maxInflight int
}

func (ct *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !strings.HasSuffix(req.URL.Path, "/sendMessage") {
		return ct.base.RoundTrip(req)
	}

	ct.mu.Lock()
	ct.inflight++
	if ct.inflight > ct.maxInflight {
		ct.maxInflight = ct.inflight
	}
	ct.mu.Unlock()

	defer func() {
		ct.mu.Lock()
		ct.inflight--
		ct.mu.Unlock()
	}()
	return ct.base.RoundTrip(req)
}

func (ct *countingTransport) max() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.maxInflight
}

// newSlowBotAPI answers getMe at once and holds sendMessage for delay or until the caller goes away
func newSlowBotAPI(t *testing.T, delay time.Duration) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var result interface{} = true
		switch r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:] {
		case "getMe":
			result = map[string]interface{}{"id": 1, "is_bot": true, "first_name": "Notes", "username": "notes_bot"}
		case "sendMessage":
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
			result = map[string]interface{}{"message_id": 1, "date": 0, "chat": map[string]interface{}{"id": 1, "type": "private"}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_DeadlineAbortsRequest(t *testing.T) {
	srv := newSlowBotAPI(t, 2*time.Second)
	client, err := NewClient(Config{Token: "123:abc", Endpoint: srv.URL + "/bot%s/%s"}, logger.Nop())
	require.NoError(t, err)

	ct := &countingTransport{base: http.DefaultTransport}
	client.bot.Client = &http.Client{Transport: ct}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = client.SendText(ctx, 100, "hello", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	ct.mu.Lock()
	defer ct.mu.Unlock()
	assert.Zero(t, ct.inflight, "request must not outlive its context")
}

func TestClient_FanoutConcurrencyHoldsAtTheChannel(t *testing.T) {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite("file:"+name+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	subject := model.Subject{Name: "Computer Science"}
	require.NoError(t, db.Create(&subject).Error)
	term := model.Term{SubjectID: subject.ID, Name: "Fall"}
	require.NoError(t, db.Create(&term).Error)
	course := model.Course{TermID: term.ID, Name: "Algorithms"}
	require.NoError(t, db.Create(&course).Error)
	instructor := model.Instructor{CourseID: course.ID, Name: "Dr. A"}
	require.NoError(t, db.Create(&instructor).Error)
	published := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	doc := model.Document{
		InstructorID: instructor.ID,
		Title:        "Sorting",
		Author:       "bob",
		WrittenAt:    published,
		StorageRef:   "notes/sorting.pdf",
		PublishedAt:  published,
	}
	require.NoError(t, db.Create(&doc).Error)

	subs := services.NewSubscriptionService(db)
	for i := 0; i < 20; i++ {
		user := model.User{ChatID: int64(1000 + i), Username: "user", LastActiveAt: time.Now()}
		require.NoError(t, db.Create(&user).Error)
		require.NoError(t, subs.Subscribe(context.Background(), user.ID, course.ID))
	}

	srv := newSlowBotAPI(t, 600*time.Millisecond)
	client, err := NewClient(Config{Token: "123:abc", Endpoint: srv.URL + "/bot%s/%s"}, logger.Nop())
	require.NoError(t, err)
	ct := &countingTransport{base: http.DefaultTransport}
	client.bot.Client = &http.Client{Transport: ct}

	notifier := services.NewNotificationService(db, services.NewCatalogService(db), subs, client, logger.Nop(),
		services.NotifierConfig{Concurrency: 2, SendTimeout: 50 * time.Millisecond})

	report, err := notifier.NotifyNewDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, report.Attempted)
	assert.Equal(t, 20, report.Failed)
	assert.LessOrEqual(t, ct.max(), 2)
}

func TestDisabled(t *testing.T) {
	d := Disabled{Log: logger.Nop()}
	assert.ErrorIs(t, d.SendText(context.Background(), 1, "x", nil), ErrDisabled)
	_, err := d.BotUsername(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
}
