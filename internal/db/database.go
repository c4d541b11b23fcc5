package db

import (
	"fmt"

	"github.com/gamexpress/storefront/config"
	appLogger "github.com/gamexpress/storefront/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the state database selected by STATE_DRIVER.
func Initialize(state *config.StateConfig, cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector
	switch state.Driver {
	case "postgres":
		appLogger.Info("Connecting to database", map[string]interface{}{
			"host":     cfg.Host,
			"port":     cfg.Port,
			"database": cfg.DBName,
			"user":     cfg.User,
		})
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		appLogger.Info("Opening sqlite state database", map[string]interface{}{
			"path": state.SQLitePath,
		})
		dialector = sqlite.Open(state.SQLitePath)
	default:
		return fmt.Errorf("driver %q is not a database driver", state.Driver)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Use silent mode, we'll use our own logger
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if state.Driver == "sqlite" {
		// sqlite serializes writers anyway
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	appLogger.Info("Database connection established successfully", map[string]interface{}{
		"driver": state.Driver,
	})
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
