package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	healthResponse = `{"status":"ok"}`
	readyTimeout   = 2 * time.Second
)

// PingFunc checks a dependency, e.g. the Redis token store.
type PingFunc func(ctx context.Context) error

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.WriteString(w, healthResponse)
}

// readyHandler reports 503 until every dependency answers its ping.
func readyHandler(logger *slog.Logger, checks map[string]PingFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		failed := map[string]string{}
		for name, ping := range checks {
			if ping == nil {
				continue
			}
			if err := ping(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
				failed[name] = "unavailable"
			}
		}

		if len(failed) > 0 {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
			return
		}
		healthHandler(w, r)
	}
}
