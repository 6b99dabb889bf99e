package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/study-notes-bot/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatIdentity is who an inbound chat event came from
type ChatIdentity struct {
	ChatID   int64
	Username string
}

// UserService maps external chat identities to users, creating them lazily
type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, now: time.Now}
}

// Touch creates the user on first contact and refreshes last activity and username on every later one.
// Concurrent first contacts from the same chat converge on a single row through the upsert.
func (s *UserService) Touch(ctx context.Context, identity ChatIdentity) (*model.User, error) {
	now := s.now().UTC()
	user := model.User{
		ChatID:       identity.ChatID,
		Username:     identity.Username,
		LastActiveAt: now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"username":       identity.Username,
			"last_active_at": now,
			"updated_at":     now,
		}),
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	var stored model.User
	if err := s.db.WithContext(ctx).Where("chat_id = ?", identity.ChatID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &stored, nil
}

// Get returns a user by internal id
func (s *UserService) Get(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &user, nil
}

// SetBlocked flags or unflags a user; blocked users are turned away before any menu is shown
func (s *UserService) SetBlocked(ctx context.Context, userID uint, blocked bool) error {
	result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("blocked", blocked)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
