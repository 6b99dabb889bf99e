package model

import (
	"path"
	"time"

	"gorm.io/gorm"
)

// Document represents an uploaded note filed under an instructor.
// RatingSum and RatingCount form a running aggregate, individual ratings are not needed to compute it.
type Document struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	InstructorID uint           `gorm:"not null;index" json:"instructor_id"`
	Title        string         `gorm:"type:varchar(128);not null" json:"title"`
	Author       string         `gorm:"type:varchar(64);not null" json:"author"`
	WrittenAt    time.Time      `gorm:"type:date;not null" json:"written_at"`
	Description  string         `gorm:"type:text" json:"description"`
	StorageRef   string         `gorm:"type:varchar(256);not null" json:"storage_ref"` // key in the file store
	PublishedAt  time.Time      `gorm:"not null" json:"published_at"`
	RatingSum    int64          `gorm:"not null;default:0" json:"rating_sum"`
	RatingCount  int64          `gorm:"not null;default:0" json:"rating_count"`

	// Relationships
	Instructor *Instructor `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"instructor,omitempty"`
}

// AverageRating returns RatingSum/RatingCount, or 0 when nobody rated the document yet
func (d *Document) AverageRating() float64 {
	if d.RatingCount <= 0 {
		return 0
	}
	return float64(d.RatingSum) / float64(d.RatingCount)
}

// FileName is the name the document is delivered under
func (d *Document) FileName() string {
	return path.Base(d.StorageRef)
}
