package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finpulse/finpulse/internal/config"
	"github.com/finpulse/finpulse/internal/database"
	"github.com/finpulse/finpulse/internal/modules/health"
	"github.com/finpulse/finpulse/internal/modules/trends"
	"github.com/finpulse/finpulse/internal/modules/uniteconomics"
	"github.com/finpulse/finpulse/internal/modules/variance"
	"github.com/finpulse/finpulse/internal/scheduler"
	"github.com/finpulse/finpulse/internal/server"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/logger"
)

func main() {
	// Load configuration first so the log level is configurable
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting FinPulse")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Stores
	plans := stores.NewPlanRepository(db.Conn(), log)
	ledger := stores.NewLedgerRepository(db.Conn(), log)
	customers := stores.NewCustomerRepository(db.Conn(), log)
	bank := stores.NewBankRepository(db.Conn(), log)
	employees := stores.NewEmployeeRepository(db.Conn(), log)

	// Analytics modules
	varianceAnalyzer := variance.NewAnalyzer(plans, ledger, employees, log)
	trendService := trends.NewService(ledger, bank, employees, log)
	economicsService := uniteconomics.NewService(customers, ledger, log)
	snapshots := health.NewSnapshotRepository(db.Conn(), log)
	composer := health.NewComposer(trendService, economicsService, bank, ledger, snapshots, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register background jobs
	snapshotJob := scheduler.NewSnapshotJob(composer, cfg.SnapshotOrgs, log)
	if err := sched.AddJob(cfg.SnapshotCron, snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DB:        db,
		Scheduler: sched,
		DevMode:   cfg.DevMode,
		Modules: server.Modules{
			Variance:      variance.NewHandler(varianceAnalyzer, log),
			Trends:        trends.NewHandler(trendService, log),
			UnitEconomics: uniteconomics.NewHandler(economicsService, log),
			Health:        health.NewHandler(composer, log),
		},
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
