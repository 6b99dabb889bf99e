package database

import (
	"fmt"
	"time"

	"github.com/sahilchouksey/study-notes-bot/config"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	GetDB() *gorm.DB
}

type GORMStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// StartGORM opens the configured database (PostgreSQL in production, SQLite for local runs)
func StartGORM(env *config.EnvironmentVariable, log *logger.Logger) (*GORMStore, error) {
	// Configure GORM logger
	gormLogger := gormlogger.Default.LogMode(gormlogger.Info)
	if env.IsProduction() {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	var (
		db  *gorm.DB
		err error
	)
	switch env.DB_DRIVER {
	case "sqlite":
		db, err = OpenSQLite(env.SQLITE_PATH, gormLogger)
	default:
		db, err = gorm.Open(postgres.Open(env.PostgresDSN()), &gorm.Config{
			Logger:                 gormLogger,
			SkipDefaultTransaction: false,
			PrepareStmt:            true,
		})
	}
	if err != nil {
		log.Error("unable to connect to database", "driver", env.DB_DRIVER, "error", err)
		return nil, err
	}

	if env.DB_DRIVER != "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}

		// Connection pool settings
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("connected to database", "driver", env.DB_DRIVER)

	return &GORMStore{db: db, log: log}, nil
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB, log *logger.Logger) *GORMStore {
	return &GORMStore{db: db, log: log}
}

// OpenSQLite opens a SQLite database. A single connection keeps in-memory databases alive
// and serializes writers, which SQLite requires anyway.
func OpenSQLite(dsn string, gormLogger gormlogger.Interface) (*gorm.DB, error) {
	if gormLogger == nil {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate creates/updates all tables used by the bot
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Catalog hierarchy
		&model.Subject{},
		&model.Term{},
		&model.Course{},
		&model.Instructor{},
		&model.Document{},

		// Chat users and their relations
		&model.User{},
		&model.Subscription{},
		&model.Rating{},

		// Fan-out audit
		&model.NotificationDelivery{},

		// Maintenance
		&model.CronJobLog{},
	)
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	s.log.Info("running AutoMigrate")

	if err := Migrate(s.db); err != nil {
		s.log.Error("error running AutoMigrate", "error", err)
		return err
	}

	s.log.Info("AutoMigrate completed")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing database connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance for use in services/handlers
func (s *GORMStore) GetDB() *gorm.DB {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
