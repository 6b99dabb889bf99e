package services

import "errors"

var (
	// ErrNotFound is returned when a catalog entry, document or user is missing or was deleted
	ErrNotFound = errors.New("not found")
	// ErrInvalidRating is returned for ratings outside 1..5
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

const (
	MinRating = 1
	MaxRating = 5
)
