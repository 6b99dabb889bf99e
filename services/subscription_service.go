package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/study-notes-bot/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionService tracks which users want new-document notifications for which courses.
// Subscribe and Unsubscribe are idempotent and rely on the (user_id, course_id) unique index,
// never on a read followed by a write in the caller.
type SubscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

func (s *SubscriptionService) IsSubscribed(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return count > 0, nil
}

// Subscribe creates the relation if absent. Subscribing twice is a successful no-op.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, courseID uint) error {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return err
	}

	sub := model.Subscription{UserID: userID, CourseID: courseID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&sub).Error
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

// Unsubscribe removes the relation if present. Removing a missing one is a successful no-op.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, courseID uint) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Subscription{}).Error
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

// Toggle flips the subscription and returns the state that is now stored
func (s *SubscriptionService) Toggle(ctx context.Context, userID, courseID uint) (bool, error) {
	subscribed, err := s.IsSubscribed(ctx, userID, courseID)
	if err != nil {
		return false, err
	}

	if subscribed {
		err = s.Unsubscribe(ctx, userID, courseID)
	} else {
		err = s.Subscribe(ctx, userID, courseID)
	}
	if err != nil {
		return subscribed, err
	}

	return s.IsSubscribed(ctx, userID, courseID)
}

// ListSubscribers returns a snapshot of the users subscribed to a course.
// Blocked users are left out.
func (s *SubscriptionService) ListSubscribers(ctx context.Context, courseID uint) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.course_id = ? AND users.blocked = ?", courseID, false).
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return users, nil
}

func (s *SubscriptionService) ensureCourse(ctx context.Context, courseID uint) error {
	var course model.Course
	err := s.db.WithContext(ctx).Select("id").First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch course: %w", err)
	}
	return nil
}
