package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/study-notes-bot/model"
	"gorm.io/gorm"
)

// CatalogService is the read-only view over Subject -> Term -> Course -> Instructor -> Document.
// The admin panel mutates the catalog concurrently, so every lookup may come back ErrNotFound.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// DocumentContext is a document together with every ancestor up to the subject
type DocumentContext struct {
	Document   model.Document
	Instructor model.Instructor
	Course     model.Course
	Term       model.Term
	Subject    model.Subject
}

func (s *CatalogService) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

func (s *CatalogService) ListTerms(ctx context.Context, subjectID uint) ([]model.Term, error) {
	var terms []model.Term
	if err := s.db.WithContext(ctx).Where("subject_id = ?", subjectID).Order("name ASC").Find(&terms).Error; err != nil {
		return nil, fmt.Errorf("failed to list terms: %w", err)
	}
	return terms, nil
}

func (s *CatalogService) ListCourses(ctx context.Context, termID uint) ([]model.Course, error) {
	var courses []model.Course
	if err := s.db.WithContext(ctx).Where("term_id = ?", termID).Order("name ASC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *CatalogService) ListInstructors(ctx context.Context, courseID uint) ([]model.Instructor, error) {
	var instructors []model.Instructor
	if err := s.db.WithContext(ctx).Where("course_id = ?", courseID).Order("name ASC").Find(&instructors).Error; err != nil {
		return nil, fmt.Errorf("failed to list instructors: %w", err)
	}
	return instructors, nil
}

// ListDocuments returns the documents of an instructor, oldest publication first
func (s *CatalogService) ListDocuments(ctx context.Context, instructorID uint) ([]model.Document, error) {
	var documents []model.Document
	if err := s.db.WithContext(ctx).Where("instructor_id = ?", instructorID).Order("published_at ASC, id ASC").Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return documents, nil
}

func (s *CatalogService) GetSubject(ctx context.Context, id uint) (*model.Subject, error) {
	var subject model.Subject
	if err := s.first(ctx, &subject, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

func (s *CatalogService) GetTerm(ctx context.Context, id uint) (*model.Term, error) {
	var term model.Term
	if err := s.first(ctx, &term, id); err != nil {
		return nil, err
	}
	return &term, nil
}

func (s *CatalogService) GetCourse(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	if err := s.first(ctx, &course, id); err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *CatalogService) GetInstructor(ctx context.Context, id uint) (*model.Instructor, error) {
	var instructor model.Instructor
	if err := s.first(ctx, &instructor, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (s *CatalogService) GetDocument(ctx context.Context, id uint) (*model.Document, error) {
	var document model.Document
	if err := s.first(ctx, &document, id); err != nil {
		return nil, err
	}
	return &document, nil
}

// DocumentContext resolves a document and its full ancestry.
// A dangling reference anywhere on the path is reported as ErrNotFound.
func (s *CatalogService) DocumentContext(ctx context.Context, documentID uint) (*DocumentContext, error) {
	var out DocumentContext

	if err := s.first(ctx, &out.Document, documentID); err != nil {
		return nil, err
	}
	if err := s.first(ctx, &out.Instructor, out.Document.InstructorID); err != nil {
		return nil, fmt.Errorf("instructor of document %d: %w", documentID, err)
	}
	if err := s.first(ctx, &out.Course, out.Instructor.CourseID); err != nil {
		return nil, fmt.Errorf("course of document %d: %w", documentID, err)
	}
	if err := s.first(ctx, &out.Term, out.Course.TermID); err != nil {
		return nil, fmt.Errorf("term of document %d: %w", documentID, err)
	}
	if err := s.first(ctx, &out.Subject, out.Term.SubjectID); err != nil {
		return nil, fmt.Errorf("subject of document %d: %w", documentID, err)
	}

	return &out, nil
}

func (s *CatalogService) first(ctx context.Context, dest interface{}, id uint) error {
	if id == 0 {
		return ErrNotFound
	}
	err := s.db.WithContext(ctx).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("catalog lookup failed: %w", err)
	}
	return nil
}
