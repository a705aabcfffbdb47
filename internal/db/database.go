package db

import (
	"fmt"
	"os"

	"iamercado/pkg/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection
func NewDatabase() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		os.Getenv("DB_TIMEZONE"),
	)

	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	}

	database, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return database, nil
}

// RunMigrations runs GORM AutoMigrate with all models
func RunMigrations(database *gorm.DB) error {
	if err := database.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Warn().Err(err).Msg("could not create uuid-ossp extension")
	}

	if err := database.AutoMigrate(models.GetAllModels()...); err != nil {
		return fmt.Errorf("failed to run AutoMigrate: %w", err)
	}

	if err := createCustomIndexes(database); err != nil {
		log.Warn().Err(err).Msg("failed to create some custom indexes")
	}

	return nil
}

// createCustomIndexes creates indexes GORM does not handle automatically
func createCustomIndexes(database *gorm.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_phone_created ON chat_messages (phone, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_phone_submitted ON orders (customer_phone, submitted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_products_name_trgm ON products USING gin (to_tsvector('portuguese', name))`,
	}

	for _, idx := range indexes {
		if err := database.Exec(idx).Error; err != nil {
			return err
		}
	}
	return nil
}
