// Package main is the printer service entrypoint. It wires configuration,
// database, repositories, services and the HTTP/WebSocket layer together and
// owns the process lifecycle.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/database"
	"printer-service/internal/handler"
	"printer-service/internal/repository"
	"printer-service/internal/routes"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// Application holds the wired components of the running service.
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Repositories
	printerRepo repository.PrinterRepository
	jobRepo     repository.JobRepository
	statusRepo  repository.StatusLogRepository

	// Services
	sessions         *service.SessionManager
	printerService   *service.PrinterService
	jobService       *service.JobService
	discoveryService *service.DiscoveryService
	statusMonitor    *service.StatusMonitor

	// Event distribution
	bus *handler.EventBus

	cancelBackground context.CancelFunc
}

// @title Printer Service API
// @version 1.0.0
// @description REST and WebSocket API for managing ESC/POS receipt printers: registration, connections, print jobs, status monitoring and discovery.

// @contact.name Printer Service Team

// @license.name MIT

// @host localhost:8085
// @BasePath /api/v1
func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "path to a config file (overrides the search path)")
	pflag.Parse()

	app, err := NewApplication(configPath)
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication builds the full dependency graph from configuration.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "printer-service")
	serviceLogger.LogServiceStart(cfg.App.Version)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase opens the connection pool and applies pending migrations.
func (app *Application) initializeDatabase() error {
	db, err := database.New(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	migrator := database.NewMigrator(db, app.logger, "")
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

func (app *Application) initializeRepositories() error {
	app.printerRepo = repository.NewPrinterRepository(app.database, app.logger)
	app.jobRepo = repository.NewJobRepository(app.database, app.logger)
	app.statusRepo = repository.NewStatusLogRepository(app.database, app.logger)

	app.logger.Info("Repositories initialized successfully")
	return nil
}

func (app *Application) initializeServices() error {
	app.bus = handler.NewEventBus(app.logger)
	app.sessions = service.NewSessionManager(app.logger)

	app.printerService = service.NewPrinterService(
		app.printerRepo,
		app.statusRepo,
		app.sessions,
		app.bus,
		app.config,
		app.logger,
	)

	app.jobService = service.NewJobService(
		app.jobRepo,
		app.printerRepo,
		app.sessions,
		app.bus,
		app.config,
		app.logger,
	)

	app.discoveryService = service.NewDiscoveryService(app.config, app.logger)

	app.statusMonitor = service.NewStatusMonitor(
		app.statusRepo,
		app.printerRepo,
		app.sessions,
		app.bus,
		app.config,
		app.logger,
	)

	app.logger.Info("Services initialized successfully")
	return nil
}

func (app *Application) initializeServer() error {
	router := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.sessions,
		app.printerService,
		app.jobService,
		app.discoveryService,
		app.bus,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router.SetupRouter(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.server.Addr),
		zap.Bool("tls", app.config.Server.TLS.Enabled))
	return nil
}

// Start runs the HTTP server and background services, then blocks until a
// shutdown signal arrives.
func (app *Application) Start() error {
	go func() {
		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(app.config.Server.TLS.CertFile, app.config.Server.TLS.KeyFile)
		} else {
			err = app.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	app.logger.Info("Printer service started",
		zap.String("address", app.server.Addr),
		zap.String("environment", app.config.App.Environment))

	app.startBackgroundServices()
	app.waitForShutdown()
	return nil
}

func (app *Application) startBackgroundServices() {
	ctx, cancel := context.WithCancel(context.Background())
	app.cancelBackground = cancel

	go app.bus.Start()
	app.statusMonitor.Start(ctx)
	go app.runCleanupLoop(ctx)

	app.logger.Info("Background services started")
}

// runCleanupLoop prunes aged job and status rows on an hourly schedule.
func (app *Application) runCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.runCleanup()
		}
	}
}

func (app *Application) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	jobCutoff := time.Now().AddDate(0, 0, -90)
	if deleted, err := app.jobRepo.DeleteOld(ctx, jobCutoff); err != nil {
		app.logger.Error("Failed to delete old print jobs", zap.Error(err))
	} else if deleted > 0 {
		app.logger.Info("Deleted old print jobs", zap.Int64("count", deleted))
	}

	statusCutoff := time.Now().AddDate(0, 0, -30)
	if deleted, err := app.statusRepo.DeleteOld(ctx, statusCutoff); err != nil {
		app.logger.Error("Failed to delete old status logs", zap.Error(err))
	} else if deleted > 0 {
		app.logger.Info("Deleted old status logs", zap.Int64("count", deleted))
	}
}

func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown stops components in reverse dependency order: HTTP first so no new
// work arrives, then the monitor, then open printer sessions, then the bus
// and database.
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "printer-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.statusMonitor.Stop()

	if app.cancelBackground != nil {
		app.cancelBackground()
	}

	app.sessions.CloseAll()
	app.bus.Stop()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
