package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/profile-portal/config"
	"github.com/target/profile-portal/internal/adapters/backend"
	redisstore "github.com/target/profile-portal/internal/adapters/redis"
	httpx "github.com/target/profile-portal/internal/http"
	"github.com/target/profile-portal/internal/observability/statsd"
	"github.com/target/profile-portal/internal/ports"
	"github.com/target/profile-portal/internal/service"
)

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second

	sessionSweepInterval = time.Minute
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions *service.SessionRegistry
	Tokens   ports.TokenStore
	Backend  *backend.Client
	Flash    *httpx.FlashStore
	Metrics  *statsd.Client
	// Checks are the dependencies reported by /healthz.
	Checks map[string]httpx.PingFunc
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// buildMetrics configures the StatsD sink. A failure to dial disables metrics rather than startup.
func buildMetrics(logger *slog.Logger, cfg config.MetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// NewServices wires the backend client, token store and session registry.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("redis client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	metricsClient := buildMetrics(logger, cfg.Metrics)
	var sink statsd.Sink
	if metricsClient != nil {
		sink = metricsClient
	}

	api := backend.NewClient(backend.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})

	tokens := redisstore.NewTokenStore(deps.RedisClient, redisstore.TokenStoreOptions{
		Prefix:     cfg.Session.KeyPrefix,
		DefaultTTL: cfg.Session.TTL,
	})

	sessions := service.NewSessionRegistry(service.SessionRegistryOptions{
		NewAPI:  func() ports.AuthAPI { return api.Fork() },
		Tokens:  tokens,
		Logger:  logger,
		Metrics: sink,
		IdleTTL: cfg.Session.IdleTTL,
	})

	flash, err := httpx.NewFlashStore(httpx.FlashConfig{
		Secret:  cfg.Session.FlashSecret,
		Domain:  cfg.HTTP.CookieDomain,
		DevMode: cfg.IsDev,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("flash store: %w", err)
	}

	redisClient := deps.RedisClient
	return ServiceContainer{
		Sessions: sessions,
		Tokens:   tokens,
		Backend:  api,
		Flash:    flash,
		Metrics:  metricsClient,
		Checks: map[string]httpx.PingFunc{
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}, nil
}

// ServiceOrchestrationConfig contains dependencies for running the portal.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// backgroundService describes a startable background component.
type backgroundService struct {
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

func launchBackground(ctx context.Context, logger *slog.Logger, errCh chan<- error, descriptor backgroundService) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case errCh <- errMsg:
			case <-ctx.Done():
			default:
				logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", descriptor.name)
	return done
}

func startBackgroundServices(ctx context.Context, logger *slog.Logger, errCh chan<- error, services []backgroundService) []backgroundServiceHandle {
	handles := make([]backgroundServiceHandle, 0, len(services))
	for _, svc := range services {
		handles = append(handles, backgroundServiceHandle{
			name: svc.name,
			done: launchBackground(ctx, logger, errCh, svc),
		})
	}
	return handles
}

func newSessionSweeperService(sessions *service.SessionRegistry) backgroundService {
	return backgroundService{
		name: "session sweeper",
		start: func(ctx context.Context) error {
			if sessions == nil {
				return nil
			}
			sessions.Run(ctx, sessionSweepInterval)
			return nil
		},
	}
}

// RunServicesWithShutdown starts the HTTP server and background services and blocks until
// SIGINT/SIGTERM or a service error, then stops everything gracefully.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	backgrounds := []backgroundService{newSessionSweeperService(cfg.Services.Sessions)}
	errCh := make(chan error, len(backgrounds)+1)

	server, err := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})
	if err != nil {
		return err
	}

	handles := startBackgroundServices(serviceCtx, logger, errCh, backgrounds)

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  server,
		logger:      logger,
		backgrounds: handles,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for a shutdown signal, a service error or cancellation of ctx.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case <-cfg.ctx.Done():
		cfg.logger.Info("context canceled; shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops the HTTP server and waits for background services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		// The service context is already canceled here; shutdown gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cfg.ctx), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context: shutdownCtx,
			Server:  cfg.httpServer,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}
	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
