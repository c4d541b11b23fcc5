package db

import (
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/pkg/logger"
	"gorm.io/gorm"
)

// models persisted by the client. Everything else lives behind the remote API.
var models = []interface{}{
	&model.ClientState{},
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs the migrations against db.
func MigrateDB(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
