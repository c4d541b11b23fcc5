// Package bootstrap opens the process wide dependencies shared by the
// storefront binaries.
package bootstrap

import (
	"fmt"

	"github.com/gamexpress/storefront/config"
	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/model"
	"github.com/gamexpress/storefront/internal/app/repository"
	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/gamexpress/storefront/internal/db"
	"github.com/gamexpress/storefront/internal/storage"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/gamexpress/storefront/pkg/redis"
)

// OpenState opens the state store selected by STATE_DRIVER. The returned
// func releases the underlying connection.
func OpenState(cfg *config.Config) (repository.StateRepository, func(), error) {
	var (
		state   repository.StateRepository
		closeFn func()
	)

	switch cfg.State.Driver {
	case "redis":
		if err := redis.Init(&cfg.Redis); err != nil {
			return nil, nil, err
		}
		state = repository.NewRedisStateRepository(redis.GetClient(), 0)
		closeFn = func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}
	default:
		if err := db.Initialize(&cfg.State, &cfg.Database); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		state = repository.NewStateRepository(db.GetDB())
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", err)
			}
		}
	}

	if cfg.State.Secret != "" {
		state = repository.NewSealedStateRepository(state, cfg.State.Secret, model.StateKeyToken)
	} else {
		logger.Warn("STATE_SECRET is not set, auth tokens are stored in clear")
	}
	return state, closeFn, nil
}

// ImageLoader resolves product images from local paths and S3.
func ImageLoader(cfg *config.Config) *storage.ImageLoader {
	s3 := storage.NewS3Storage(cfg.S3.Region, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.Endpoint)
	return storage.NewImageLoader(s3)
}

// StorefrontDeps bundles what every storefront session shares.
func StorefrontDeps(cfg *config.Config, state repository.StateRepository, log *logger.Logger) service.StorefrontDeps {
	return service.StorefrontDeps{
		API: api.Config{
			BaseURL: cfg.API.BaseURL,
			CSRFURL: cfg.API.CSRFURL,
			Timeout: cfg.API.Timeout,
		},
		State:      state,
		StorageURL: cfg.API.StorageURL,
		Images:     ImageLoader(cfg),
		Logger:     log,
	}
}
