package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TabQueryAPI/internal/config"
	"TabQueryAPI/internal/db"
	"TabQueryAPI/internal/logger"
	"TabQueryAPI/internal/model"
	"TabQueryAPI/internal/router"
)

func main() {
	debugFlag := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %v\n", err)
		os.Exit(1)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("log_level_invalid", map[string]any{"error": err.Error()})
	}
	logger.SetLevel(level)
	if *debugFlag {
		logger.SetDebug(true)
	}

	// PostgreSQL
	if err := db.InitPostgres(cfg.PostgresDSN); err != nil {
		logger.Error("postgres_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer db.ClosePostgres()
	logger.Info("postgres_connected", nil)

	// Redis (optional second cache tier)
	db.InitRedis(cfg.RedisAddr)
	if db.RDB != nil {
		if err := db.PingRedis(); err != nil {
			logger.Warn("redis_unavailable", map[string]any{"addr": cfg.RedisAddr, "error": err.Error()})
			db.CloseRedis()
		} else {
			logger.Info("redis_connected", map[string]any{"addr": cfg.RedisAddr})
		}
	}
	defer db.CloseRedis()

	// Initialize registry
	if err := model.InitRegistry(cfg.ModelsDir); err != nil {
		logger.Error("registry_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	model.DefaultMaxLimit = cfg.DefaultMaxLimit
	model.SetOptionsCacheLimits(cfg.OptionsCache.MaxBytes, cfg.OptionsCache.TTL)
	// model files may have changed since the last run
	if err := model.FlushOptionsCache(context.Background()); err != nil {
		logger.Warn("options_cache_flush_failed", map[string]any{"error": err.Error()})
	}
	logger.Info("models_initialized", map[string]any{"count": len(model.Registry)})
	model.LogCacheBudget()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.InitRoutes(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server_shutdown_failed", map[string]any{"error": err.Error()})
		}
	}()

	// Start HTTP server
	logger.Info("server_start", map[string]any{"port": cfg.Port})
	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("server_stopped", nil)
}
