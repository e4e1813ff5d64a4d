/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the social-insurance premium engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (YAML file, .env, environment), then flags
  2. Configure zerolog
  3. Load the rate table (file or built-in Kyokai Kenpo Tokyo rates)
  4. Initialize SQLite store
  5. Create API handler and router
  6. Start the recalculation scheduler (if enabled)
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML configuration file (default: shaho.yaml, optional)
  -port    HTTP server port, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for in-memory database

ENVIRONMENT:
  PORT, DB_PATH, LOG_LEVEL, LOG_PRETTY, RATES_FILE, QUALITY_GRACE_DAYS,
  BATCH_WORKERS, SCHEDULER_ENABLED, SCHEDULER_INTERVAL. See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/shaho.db"

  # Run with a custom rate table and debug logs
  RATES_FILE=rates/osaka.yaml LOG_LEVEL=debug ./server

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration sources
  - factory/rates.go: Rate table format
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/shaho-engine/api"
	"github.com/warp/shaho-engine/config"
	"github.com/warp/shaho-engine/factory"
	"github.com/warp/shaho-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "shaho.yaml", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	setupLogging(cfg)

	rates := factory.DefaultRateTable()
	if cfg.RatesFile != "" {
		rates, err = factory.LoadRateTable(cfg.RatesFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.RatesFile).Msg("failed to load rate table")
		}
	}
	log.Info().Str("table", rates.Name).Int("revisions", len(rates.Rows())).Msg("rate table loaded")

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to initialize database")
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, rates, log.Logger)
	handler.Validator.GraceDays = cfg.Quality.GraceDays
	handler.Workers = cfg.Batch.Workers

	scheduler := api.NewRecalculationScheduler(handler)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("db", cfg.DBPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
	}
}
