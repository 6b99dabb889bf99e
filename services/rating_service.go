package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/study-notes-bot/model"
	"gorm.io/gorm"
)

// RatingSummary is a document's aggregate after a rating was applied
type RatingSummary struct {
	DocumentID uint
	Sum        int64
	Count      int64
	Average    float64
}

// RatingService maintains the running rating aggregate on documents.
// The increment happens in SQL so concurrent raters never lose an update.
type RatingService struct {
	db    *gorm.DB
	audit bool
}

// NewRatingService creates a rating service; audit controls whether individual votes are stored
func NewRatingService(db *gorm.DB, audit bool) *RatingService {
	return &RatingService{db: db, audit: audit}
}

// RecordRating adds value to the document's aggregate and returns the new average.
// Repeat votes by the same user are counted every time.
func (s *RatingService) RecordRating(ctx context.Context, userID, documentID uint, value int) (*RatingSummary, error) {
	if value < MinRating || value > MaxRating {
		return nil, ErrInvalidRating
	}

	var doc model.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Document{}).
			Where("id = ?", documentID).
			Updates(map[string]interface{}{
				"rating_sum":   gorm.Expr("rating_sum + ?", value),
				"rating_count": gorm.Expr("rating_count + ?", 1),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update rating: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		if s.audit {
			if err := tx.Create(&model.Rating{UserID: userID, DocumentID: documentID, Value: value}).Error; err != nil {
				return fmt.Errorf("failed to store rating: %w", err)
			}
		}

		return tx.Select("id", "rating_sum", "rating_count").First(&doc, documentID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &RatingSummary{
		DocumentID: doc.ID,
		Sum:        doc.RatingSum,
		Count:      doc.RatingCount,
		Average:    doc.AverageRating(),
	}, nil
}
