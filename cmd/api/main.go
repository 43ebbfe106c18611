package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/internal/backend"
	"github.com/offthechainak/hourbank/internal/config"
	"github.com/offthechainak/hourbank/internal/httpapi"
	"github.com/offthechainak/hourbank/pkg/db"
	"github.com/offthechainak/hourbank/pkg/utils/logging"
)

func main() {
	env := flag.String("env", "", "Environment (test, prod, etc.)")
	flag.Parse()
	if *env == "" {
		if v := os.Getenv("HOURBANK_ENV"); v != "" {
			*env = v
		} else {
			*env = "prod"
		}
	}

	logger, err := logging.InitLogger(*env)
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if *env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(*env, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(env string, logger *zap.Logger) error {
	ctx := context.Background()

	cfg, err := config.LoadWithEnv(env)
	if err != nil {
		return err
	}

	store, err := backend.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	database := db.NewDB(store)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  1 * time.Second,
			WriteTimeout: 1 * time.Second,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis not reachable, rate limiting falls back to local buckets", zap.Error(err))
		}
	}

	server := httpapi.NewServer(database, logger, redisClient, cfg.Shifts)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.Router(cfg.RateLimitPerMin),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}
