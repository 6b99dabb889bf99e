package navigator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sahilchouksey/study-notes-bot/utils/cache"
)

// MaxDepth is the number of ancestors that can be selected: subject, term, course, instructor
const MaxDepth = 4

// Session is the per-chat navigation context. It is never persisted with the catalog;
// losing it only sends the chat back to the main menu.
type Session struct {
	ChatID            int64     `json:"chat_id"`
	State             State     `json:"state"`
	Stack             []uint    `json:"stack"`
	PendingDocumentID uint      `json:"pending_document_id,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewSession returns a session sitting at the main menu
func NewSession(chatID int64) *Session {
	return &Session{ChatID: chatID, State: StateRoot}
}

func (s *Session) reset() {
	s.State = StateRoot
	s.Stack = nil
	s.PendingDocumentID = 0
}

func (s *Session) push(id uint) bool {
	if len(s.Stack) >= MaxDepth {
		return false
	}
	s.Stack = append(s.Stack, id)
	return true
}

func (s *Session) pop() {
	if len(s.Stack) > 0 {
		s.Stack = s.Stack[:len(s.Stack)-1]
	}
}

// ancestor returns the selected id of a level, 0 when that level was not selected
func (s *Session) ancestor(level Level) uint {
	idx := int(level) - 1
	if idx < 0 || idx >= len(s.Stack) {
		return 0
	}
	return s.Stack[idx]
}

func (s *Session) clone() *Session {
	c := *s
	c.Stack = append([]uint(nil), s.Stack...)
	return &c
}

// SessionStore keeps sessions between events. Saves are last-write-wins per chat.
type SessionStore interface {
	Load(ctx context.Context, chatID int64) (*Session, error)
	Save(ctx context.Context, session *Session) error
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

func (m *MemoryStore) Load(_ context.Context, chatID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[chatID]; ok {
		return s.clone(), nil
	}
	return NewSession(chatID), nil
}

func (m *MemoryStore) Save(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ChatID] = session.clone()
	return nil
}

// Prune drops sessions idle since before cutoff and returns how many were removed
func (m *MemoryStore) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for chatID, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, chatID)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RedisStore shares sessions between replicas that receive webhook updates. Keys expire after ttl.
type RedisStore struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewRedisStore creates a Redis backed session store
func NewRedisStore(c *cache.RedisCache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return "nav:session:" + strconv.FormatInt(chatID, 10)
}

func (r *RedisStore) Load(ctx context.Context, chatID int64) (*Session, error) {
	var s Session
	err := r.cache.GetJSON(ctx, sessionKey(chatID), &s)
	if errors.Is(err, cache.ErrNotFound) {
		return NewSession(chatID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(s.Stack) > MaxDepth {
		return NewSession(chatID), nil
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, session *Session) error {
	if err := r.cache.SetJSON(ctx, sessionKey(session.ChatID), session, r.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
