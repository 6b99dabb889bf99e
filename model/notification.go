package model

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryStatus represents the outcome of one notification attempt
type DeliveryStatus string

const (
	DeliveryStatusSent   DeliveryStatus = "sent"
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// NotificationDelivery records a single fan-out attempt for one subscriber.
// Rows are written after the round completes and are never retried.
type NotificationDelivery struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	BatchID    string         `gorm:"type:varchar(36);index;not null" json:"batch_id"`
	DocumentID uint           `gorm:"index;not null" json:"document_id"`
	UserID     uint           `gorm:"index;not null" json:"user_id"`
	Status     DeliveryStatus `gorm:"type:varchar(20);not null" json:"status"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
}

// DeliveryMetadata is stored in NotificationDelivery.Metadata
type DeliveryMetadata struct {
	ChatID     int64  `json:"chat_id"`
	CourseID   uint   `json:"course_id"`
	CourseName string `json:"course_name,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}
