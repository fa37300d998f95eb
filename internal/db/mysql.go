package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tlgsite/internal/model"
)

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables the site owns. Everything else lives in the backend.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.AuditEntry{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
