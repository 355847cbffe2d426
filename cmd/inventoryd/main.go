package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"inventory-tracker/config"
	"inventory-tracker/internal/api"
	"inventory-tracker/internal/db"
	"inventory-tracker/internal/logging"
	"inventory-tracker/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	if !strings.EqualFold(cfg.Log.Level, "debug") && !strings.EqualFold(cfg.Log.Level, "trace") {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get sql.DB")
	}
	defer sqlDB.Close()

	appStore := store.NewGormStore(gormDB)

	// Initialize router
	router := api.NewRouter(appStore, api.Options{
		RateLimit:     rate.Limit(cfg.Server.RateLimitPerSec),
		RateBurst:     cfg.Server.RateLimitBurst,
		CacheTTL:      time.Duration(cfg.Server.CacheTTLSeconds) * time.Second,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Logger:        logger,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server ListenAndServe")
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Info().Msg("shutdown signal received, stopping server")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server Shutdown")
		return
	}

	logger.Info().Msg("server gracefully stopped")
}
