package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Wikid82/ballot/backend/internal/credentials"
	"github.com/Wikid82/ballot/backend/internal/models"
)

// Connect opens the relational store. driver is "sqlite" (dsn is a file
// path or sqlite URI) or "postgres" (dsn is a libpq connection string).
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	return db, nil
}

// Migrate creates or updates every table the backend owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&credentials.Account{},
		&models.Election{},
		&models.Candidate{},
		&models.Vote{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
