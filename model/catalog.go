package model

import (
	"time"

	"gorm.io/gorm"
)

// Subject represents a field of study (e.g., "Computer Science")
type Subject struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"type:varchar(64);not null" json:"name"`

	// Relationships
	Terms []Term `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"terms,omitempty"`
}

// Term represents an academic term of a subject (e.g., "Fall", "Semester 3")
type Term struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	SubjectID uint           `gorm:"not null;uniqueIndex:idx_term_subject_name" json:"subject_id"`
	Name      string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_term_subject_name" json:"name"`

	// Relationships
	Subject *Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
	Courses []Course `gorm:"foreignKey:TermID;constraint:OnDelete:CASCADE" json:"courses,omitempty"`
}

// Course represents a lesson taught in a term. It is the unit users subscribe to.
type Course struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	TermID    uint           `gorm:"not null;index" json:"term_id"`
	Name      string         `gorm:"type:varchar(64);not null" json:"name"`

	// Relationships
	Term          *Term          `gorm:"foreignKey:TermID;constraint:OnDelete:CASCADE" json:"term,omitempty"`
	Instructors   []Instructor   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"instructors,omitempty"`
	Subscriptions []Subscription `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// Instructor represents a lecturer of a course; documents are filed under instructors
type Instructor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;uniqueIndex:idx_instructor_course_name" json:"course_id"`
	Name      string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_instructor_course_name" json:"name"`

	// Relationships
	Course    *Course    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Documents []Document `gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}
