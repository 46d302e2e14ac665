package main

import (
	"fmt"
	"log/slog"

	"github.com/coinedge/bitcard/app"
	"github.com/coinedge/bitcard/config"
	"github.com/coinedge/bitcard/infra/initializer"
	"github.com/coinedge/bitcard/webapi"
	log "github.com/charmbracelet/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load configuration
	logger := slog.Default()
	cfg, err := config.LoadAppConfig(logger, ".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	// Initialize all dependencies
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	// Create and start the application
	a := app.New(deps)

	// Setup Fiber app with all routes and middleware
	fiberApp := webapi.SetupApp(a)

	// Start the server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	deps.Logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
	)

	return fiberApp.Listen(addr)
}
