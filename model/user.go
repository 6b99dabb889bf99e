package model

import (
	"time"
)

// User represents a chat user, created on first contact with the bot
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"` // join date
	UpdatedAt    time.Time `json:"updated_at"`
	ChatID       int64     `gorm:"uniqueIndex;not null" json:"chat_id"` // external chat identity
	Username     string    `gorm:"type:varchar(64)" json:"username"`
	Blocked      bool      `gorm:"not null;default:false" json:"blocked"`
	LastActiveAt time.Time `json:"last_active_at"`

	// Relationships
	Subscriptions []Subscription `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Ratings       []Rating       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
