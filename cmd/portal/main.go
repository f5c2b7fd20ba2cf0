package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/target/profile-portal/config"
	"github.com/target/profile-portal/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	bootstrap.SetLogLevel(cfg.SlogLevel())

	logStartupInfo(ctx, logger, &cfg)

	if err = bootstrap.ValidateConfig(&cfg); err != nil {
		return err
	}

	redisClient, err := bootstrap.ConnectRedis(ctx, bootstrap.RedisOptions{Config: cfg.Redis, Logger: logger})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer closeRedis(ctx, logger, redisClient)

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := services.Metrics.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close statsd client failed", "error", cerr)
		}
	}()

	return bootstrap.RunServicesWithShutdown(ctx, &bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting profile portal",
		"addr", cfg.HTTP.Addr,
		"api_base_url", cfg.API.BaseURL,
		"dev", cfg.IsDev,
		"rate_limit", cfg.RateLimit.Enabled,
		"metrics", cfg.Metrics.IsEnabled())
}

func closeRedis(ctx context.Context, logger *slog.Logger, client redis.UniversalClient) {
	if err := client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		logger.ErrorContext(ctx, "close redis failed", "error", err)
	}
}
