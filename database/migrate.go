package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"jobbridge_backend/internal/models"
)

// Connect opens the postgres connection. TranslateError is enabled so
// repositories can match gorm.ErrDuplicatedKey and friends instead of
// driver-specific error codes.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrate migrates every model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Student{},
		&models.Company{},
		&models.JobPosting{},
		&models.Application{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.Notification{},
	)
}
