package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamexpress/storefront/config"
	"github.com/gamexpress/storefront/internal/api"
	"github.com/gamexpress/storefront/internal/app/controller"
	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/gamexpress/storefront/internal/bootstrap"
	"github.com/gamexpress/storefront/internal/router"
	"github.com/gamexpress/storefront/internal/scheduler"
	ws "github.com/gamexpress/storefront/internal/websocket"
	"github.com/gamexpress/storefront/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})
	gin.SetMode(cfg.Server.GinMode)

	logger.Info("Starting GameXpress storefront gateway", logger.Fields{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"api_base_url": cfg.API.BaseURL,
		"state_driver": cfg.State.Driver,
		"log_level":    cfg.Log.Level,
	})

	state, closeState, err := bootstrap.OpenState(cfg)
	if err != nil {
		logger.Fatal("Failed to open state store", err)
	}
	defer closeState()

	deps := bootstrap.StorefrontDeps(cfg, state, logger.Get())

	// The product list is public, so one anonymous client serves every visitor
	catalogClient, err := api.NewClient(deps.API)
	if err != nil {
		logger.Fatal("Failed to create catalog client", err)
	}
	catalog := service.NewCatalogService(catalogClient, logger.Get())
	deps.Catalog = catalog

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := catalog.FetchProducts(ctx); err != nil {
		logger.Warn("Initial catalog load failed, serving an empty catalog until the next refresh", logger.Fields{
			"error": err.Error(),
		})
	}
	cancel()

	visitors := service.NewVisitorRegistry(deps, cfg.Server.VisitorIdleTimeout)
	defer visitors.Close()

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize controllers
	productController := controller.NewProductController(cfg.API.StorageURL, cfg.Catalog.PageSize)
	authController := controller.NewAuthController(hub)
	cartController := controller.NewCartController()
	checkoutController := controller.NewCheckoutController()
	adminController := controller.NewAdminController()
	cartSocketController := controller.NewCartSocketController(hub, visitors, cfg.CORS.AllowedOrigins)

	// Setup router
	r := router.NewRouter(
		productController,
		authController,
		cartController,
		checkoutController,
		adminController,
		cartSocketController,
		visitors,
		logger.Get(),
		cfg,
	)
	engine := r.Setup()

	jobs := scheduler.NewStorefrontScheduler(catalog, visitors, cfg.Catalog.RefreshSpec, logger.Get())
	if err := jobs.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", err)
	}
	defer jobs.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", logger.Fields{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
