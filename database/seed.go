package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *logger.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

type demoDocument struct {
	title, author, description, ref, body string
	writtenAt                             time.Time
}

var demoDocuments = []demoDocument{
	{
		title:       "Sorting algorithms",
		author:      "Demo Student",
		description: "Insertion, merge and quick sort with complexity tables.",
		ref:         "demo/sorting.txt",
		body:        "Sorting algorithms\n\nInsertion sort: O(n^2)\nMerge sort: O(n log n)\nQuick sort: O(n log n) expected\n",
		writtenAt:   time.Date(2024, 9, 12, 0, 0, 0, 0, time.UTC),
	},
	{
		title:       "Graph traversal",
		author:      "Demo Student",
		description: "BFS and DFS, with worked examples.",
		ref:         "demo/graphs.txt",
		body:        "Graph traversal\n\nBFS visits by distance, DFS by depth.\n",
		writtenAt:   time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC),
	},
}

// SeedAll creates the demo catalog. Running it twice changes nothing.
func (s *Seeder) SeedAll() error {
	s.log.Info("starting database seeding")

	if err := s.db.Transaction(s.seedCatalog); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	s.log.Info("database seeding completed")
	return nil
}

// seedCatalog creates Computer Science → Fall → Algorithms → Dr. A with two documents
func (s *Seeder) seedCatalog(tx *gorm.DB) error {
	subject := model.Subject{Name: "Computer Science"}
	if err := tx.Where(&subject).FirstOrCreate(&subject).Error; err != nil {
		return err
	}

	term := model.Term{SubjectID: subject.ID, Name: "Fall"}
	if err := tx.Where(&term).FirstOrCreate(&term).Error; err != nil {
		return err
	}

	course := model.Course{TermID: term.ID, Name: "Algorithms"}
	if err := tx.Where(&course).FirstOrCreate(&course).Error; err != nil {
		return err
	}

	instructor := model.Instructor{CourseID: course.ID, Name: "Dr. A"}
	if err := tx.Where(&instructor).FirstOrCreate(&instructor).Error; err != nil {
		return err
	}

	for _, d := range demoDocuments {
		doc := model.Document{InstructorID: instructor.ID, StorageRef: d.ref}
		err := tx.Where(&doc).Attrs(model.Document{
			Title:       d.title,
			Author:      d.author,
			Description: d.description,
			WrittenAt:   d.writtenAt,
			PublishedAt: time.Now(),
		}).FirstOrCreate(&doc).Error
		if err != nil {
			return err
		}
		s.log.Info("seeded document", "document_id", doc.ID, "title", doc.Title)
	}

	return nil
}

// SeedDemoFiles writes the files behind the demo documents into a local upload folder,
// leaving existing files alone
func (s *Seeder) SeedDemoFiles(uploadDir string) error {
	for _, d := range demoDocuments {
		path := filepath.Join(uploadDir, filepath.FromSlash(d.ref))
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(d.body), 0o644); err != nil {
			return err
		}
		s.log.Info("wrote demo file", "path", path)
	}
	return nil
}
