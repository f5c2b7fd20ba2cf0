package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/profile-portal/config"
	httpx "github.com/target/profile-portal/internal/http"
	"github.com/target/profile-portal/internal/observability/statsd"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
	// ErrCh receives the listener error if the server stops unexpectedly.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler, err := buildHTTPHandler(httpHandlerConfig{
		Logger:   logger,
		Services: routerServices(appCfg, cfg.Services, logger),
		HTTP:     appCfg.HTTP,
	})
	if err != nil {
		return nil, fmt.Errorf("build http handler: %w", err)
	}

	return startServer(logger, handler, appCfg.HTTP.Addr, cfg.ErrCh), nil
}

func routerServices(cfg *config.AppConfig, svc ServiceContainer, logger *slog.Logger) httpx.RouterServices {
	var sink statsd.Sink
	if svc.Metrics != nil {
		sink = svc.Metrics
	}
	rs := httpx.RouterServices{
		SessionCookie: httpx.SessionCookieConfig{
			Name:   cfg.Session.CookieName,
			Domain: cfg.HTTP.CookieDomain,
			TTL:    cfg.Session.TTL,
		},
		Flash: svc.Flash,
		RateLimit: httpx.RateLimitSettings{
			Enabled:    cfg.RateLimit.Enabled,
			RPS:        cfg.RateLimit.RPS,
			Burst:      cfg.RateLimit.Burst,
			TrustProxy: cfg.RateLimit.TrustProxy,
		},
		Metrics: sink,
		Checks:  svc.Checks,
		IsDev:   cfg.IsDev,
		Logger:  logger,
	}
	if svc.Sessions != nil {
		rs.Sessions = svc.Sessions
	}
	return rs
}

type httpHandlerConfig struct {
	Logger   *slog.Logger
	Services httpx.RouterServices
	HTTP     config.HTTPConfig
}

// buildHTTPHandler wraps the router in the middleware chain:
// Recover -> RequestID -> Logging -> SecurityHeaders -> Compression -> CSRF -> router.
func buildHTTPHandler(cfg httpHandlerConfig) (http.Handler, error) {
	router, err := httpx.NewRouter(cfg.Services)
	if err != nil {
		return nil, err
	}

	mws := []httpx.Middleware{
		httpx.Recover(cfg.Logger),
		httpx.RequestID(),
		httpx.Logging(cfg.Logger),
		httpx.SecurityHeaders(),
	}
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		mws = append(mws, httpx.Compression(httpx.CompressionConfig{
			Level:  cfg.HTTP.CompressionLevel,
			Logger: cfg.Logger,
		}))
	}
	mws = append(mws, httpx.CSRFProtection(httpx.CSRFConfig{CookieDomain: cfg.HTTP.CookieDomain}))

	return httpx.Chain(router, mws...), nil
}

func startServer(logger *slog.Logger, handler http.Handler, addr string, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- fmt.Errorf("http server: %w", err):
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server, letting in-flight
// login and register submissions finish within the context deadline.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	if err := cfg.Server.Shutdown(ctx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}
	return nil
}
