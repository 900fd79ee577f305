package database

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/pubimport/internal/entities"
)

// ErrTableNotFound is returned when a query hits a table that was never
// migrated, e.g. a settings table on a fresh shared database.
var ErrTableNotFound = errors.New("database table not found")

type Database struct {
	DB *gorm.DB
}

// Options tune how the connection is opened.
type Options struct {
	// LogLevel defaults to logger.Warn.
	LogLevel logger.LogLevel
	// SkipMigrations opens the database as-is.
	SkipMigrations bool
}

func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, Options{})
}

// Open connects to the SQLite database at dbPath and migrates every model
// unless opts.SkipMigrations is set.
func Open(dbPath string, opts Options) (*Database, error) {
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !opts.SkipMigrations {
		err = db.AutoMigrate(
			&entities.StoredPublication{},
			&entities.ImportBatch{},
			&entities.Setting{},
			&entities.Draft{},
			&entities.AuditEvent{},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// IsTableNotFound reports whether err is SQLite's "no such table" error.
func IsTableNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTableNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "no such table")
}

// Classify maps driver errors to package sentinels. Other errors are
// returned unchanged.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrTableNotFound) {
		return err
	}
	if IsTableNotFound(err) {
		return fmt.Errorf("%w: %v", ErrTableNotFound, err)
	}
	return err
}
