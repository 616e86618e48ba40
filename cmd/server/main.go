package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/medibook/booking-backend/internal/api"
	"github.com/medibook/booking-backend/internal/backend"
	"github.com/medibook/booking-backend/internal/server"
	"github.com/medibook/booking-backend/internal/service"
	"github.com/medibook/booking-backend/pkg/config"
	"github.com/medibook/booking-backend/pkg/logging"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile    = flag.String("env-file", ".env", "Optional dotenv file loaded before the environment is read")
	buildTime  = "unknown"
)

func main() {
	flag.Parse()

	// Shutdown signals are caught from here on, including during the bootstrap
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine; real environment variables win over it
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring env file %s: %v", *envFile, err)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Booking Backend Server",
		zap.String("version", api.Version),
		zap.String("build_time", buildTime),
	)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// run serves until ctx is cancelled and then shuts the server down gracefully
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Initialize storage backend
	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := backend.New(initCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() { _ = store.Close() }()

	// Ping storage to verify connection
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = store.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to ping storage: %w", err)
	}

	logger.Info("Storage backend initialized", zap.String("type", cfg.Storage.Type))

	// Initialize services
	services := service.NewServices(store, cfg, logger)

	// Build and start the HTTP server
	srvCfg := server.NewServerConfig(cfg)
	mgr := server.NewManager(srvCfg, logger)
	server.RegisterAll(mgr, cfg, services, logger)

	logger.Info("CORS allow-list", zap.Strings("origins", srvCfg.AllowedOrigins))

	if err := mgr.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// The port is bound; make sure the default admin exists.
	// A failed bootstrap is logged and recorded, the server keeps running.
	services.Bootstrap.Run(ctx)

	<-ctx.Done()

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := mgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	return nil
}
