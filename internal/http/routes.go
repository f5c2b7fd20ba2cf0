package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	portal "github.com/target/profile-portal"
	domainauth "github.com/target/profile-portal/internal/domain/auth"
	"github.com/target/profile-portal/internal/http/validation"
	"github.com/target/profile-portal/internal/observability/statsd"
)

const staticPathFromRoot = "frontend/static"

// RateLimitSettings throttles login and register submissions.
type RateLimitSettings struct {
	Enabled bool
	RPS     float64
	Burst   int
	// TrustProxy keys clients by X-Forwarded-For / X-Real-IP instead of the peer address.
	TrustProxy bool
}

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Sessions      SessionProvider
	SessionCookie SessionCookieConfig
	Flash         *FlashStore
	RateLimit     RateLimitSettings
	Metrics       statsd.Sink
	// Checks are pinged by /healthz, e.g. the Redis token store.
	Checks map[string]PingFunc

	// TemplateFS and StaticFS override the embedded (or, in dev mode, on-disk) assets.
	TemplateFS fs.FS
	StaticFS   fs.FS

	IsDev  bool
	Logger *slog.Logger
}

// NewRouter creates the HTTP router. Browser routes run behind the Sessions middleware;
// static files and health checks do not touch sessions.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Sessions == nil {
		return nil, errors.New("router: session provider is required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, staticFS, err := resolveAssetFS(services)
	if err != nil {
		return nil, err
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    services.IsDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("router: templates: %w", err)
	}

	ui := &UIHandlers{T: tr, Flash: services.Flash, Logger: logger}

	pages := http.NewServeMux()
	registerUIRoutes(pages, ui, services, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", readyHandler(logger, services.Checks))
	mux.Handle("HEAD /healthz", readyHandler(logger, services.Checks))
	mux.Handle("GET /static/", staticWithCacheHeaders(
		http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))), services.IsDev))
	mux.Handle("/", Sessions(services.SessionCookie, services.Sessions)(pages))

	return mux, nil
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, services RouterServices, logger *slog.Logger) {
	limit := func(route string, next http.HandlerFunc) http.Handler {
		rl := services.RateLimit
		if !rl.Enabled {
			return next
		}
		return RateLimit(RateLimitOptions{
			RPS:   rl.RPS,
			Burst: rl.Burst,
			Key: CompositeKeyExtractor(":",
				IPKeyExtractor(rl.TrustProxy),
				FormFieldKeyExtractor(validation.FieldUsername),
			),
			Route:     route,
			Logger:    logger,
			Metrics:   services.Metrics,
			OnLimited: h.rateLimited,
		})(next)
	}

	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET "+domainauth.PathLogin, h.LoginPage)
	mux.HandleFunc("GET "+domainauth.PathRegister, h.RegisterPage)
	mux.HandleFunc("GET "+domainauth.PathProfile, h.Profile)

	mux.Handle("POST "+domainauth.PathLogin, limit("login", h.Login))
	mux.Handle("POST "+domainauth.PathRegister, limit("register", h.Register))
	mux.HandleFunc("POST "+domainauth.PathLogin+"/validate", h.ValidateLogin)
	mux.HandleFunc("POST "+domainauth.PathRegister+"/validate", h.ValidateRegister)
	mux.HandleFunc("POST /logout", h.Logout)

	mux.HandleFunc("/", h.NotFound)
}

// resolveAssetFS picks template and static filesystems: explicit overrides first,
// then the working tree in dev mode, then the embedded copies.
func resolveAssetFS(services RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := services.TemplateFS, services.StaticFS

	if templateFS == nil {
		if services.IsDev {
			templateFS = os.DirFS(TemplatePathFromRoot)
		} else {
			sub, err := fs.Sub(portal.TemplateFS, TemplatePathFromRoot)
			if err != nil {
				return nil, nil, fmt.Errorf("router: embedded templates: %w", err)
			}
			templateFS = sub
		}
	}

	if staticFS == nil {
		if services.IsDev {
			staticFS = os.DirFS(staticPathFromRoot)
		} else {
			sub, err := fs.Sub(portal.StaticFS, staticPathFromRoot)
			if err != nil {
				return nil, nil, fmt.Errorf("router: embedded static files: %w", err)
			}
			staticFS = sub
		}
	}

	return templateFS, staticFS, nil
}

// staticWithCacheHeaders disables caching in dev mode and allows a short cache otherwise.
func staticWithCacheHeaders(handler http.Handler, isDev bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDev {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		handler.ServeHTTP(w, r)
	})
}
