package database

import (
	"fmt"

	"github.com/flowhook/core/internal/config"
	"github.com/flowhook/core/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance.
var DB *gorm.DB

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	db, err := openDB(cfg, resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	DB = db
	return db, nil
}

// EnsureSchema applies database migration in a short-lived setup connection.
func EnsureSchema(cfg *config.AppConfig) error {
	db, err := openDB(cfg, resolveLogLevel(cfg))
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("resolve sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

func openDB(cfg *config.AppConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSN,
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// migrate runs GORM auto-migration for all models.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.WebhookConfigModel{},
		&models.WebhookEventModel{},
		&models.DeadLetterModel{},
		&models.FlowModel{},
		&models.FlowExecutionModel{},
	)
}
