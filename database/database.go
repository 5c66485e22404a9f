package database

import (
	"fmt"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/catalog"
	"supersports-api/internal/domain/plans"
	"supersports-api/internal/domain/subscriptions"
	"supersports-api/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres and migrates the schema. The returned handle is
// the single shared store; callers inject it into every component and close
// it on shutdown via Close.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database: empty DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates/updates all domain tables. Split out so tests can run it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&users.User{},
		&catalog.Season{},
		&catalog.Stream{},
		&plans.Plan{},
		&billing.Payment{},
		&subscriptions.Subscription{},
	); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
