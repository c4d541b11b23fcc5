package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamexpress/storefront/config"
	"github.com/gamexpress/storefront/internal/app/service"
	"github.com/gamexpress/storefront/internal/bootstrap"
	"github.com/gamexpress/storefront/internal/cli"
	"github.com/gamexpress/storefront/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// logs share stderr with warnings, so keep them quiet unless asked for
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "error"
	}
	logger.Initialize(logger.Config{
		Level:  level,
		Format: "console",
		Output: os.Stderr,
	})

	state, closeState, err := bootstrap.OpenState(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeState()

	deps := bootstrap.StorefrontDeps(cfg, state, logger.Get())
	open := func(namespace string) (*service.Storefront, error) {
		return service.NewStorefront(namespace, deps)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(open).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.ErrorMessage(err))
		return 1
	}
	return 0
}
