package model

import "time"

// Subscription is the (user, course) relation behind new-document notifications.
// The composite unique index makes a second subscribe a no-op.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_subscription_user_course" json:"user_id"`
	CourseID     uint      `gorm:"not null;uniqueIndex:idx_subscription_user_course;index" json:"course_id"`
	SubscribedAt time.Time `gorm:"autoCreateTime" json:"subscribed_at"`

	// Relationships
	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}
