package httpx

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/target/profile-portal/internal/observability/metrics"
	"github.com/target/profile-portal/internal/observability/statsd"
	"golang.org/x/time/rate"
)

const limiterCleanupInterval = 5 * time.Minute

// KeyExtractor extracts the key requests are grouped by for rate limiting.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the connection. X-Forwarded-For and
// X-Real-IP are only honoured when trustProxy is set, i.e. a reverse proxy in front of the
// server overwrites them; otherwise any client could pick its own key.
func IPKeyExtractor(trustProxy bool) KeyExtractor {
	return func(r *http.Request) string {
		if trustProxy {
			if ip := forwardedIP(r); ip != "" {
				return ip
			}
		}
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return ip
	}
}

func forwardedIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Real-IP"))
}

// FormFieldKeyExtractor extracts a key from a submitted form field, e.g. the username.
func FormFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(r.FormValue(field)))
	}
}

// CompositeKeyExtractor joins the non-empty keys of several extractors with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	RPS   float64
	Burst int
	Key   KeyExtractor
	// Route names the limited endpoint in logs and metrics.
	Route   string
	Logger  *slog.Logger
	Metrics statsd.Sink
	// OnLimited writes the rejection. The Retry-After header is already set.
	// Defaults to a plain 429.
	OnLimited func(w http.ResponseWriter, r *http.Request)
}

type rateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *rateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.rate, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket has refilled, at most once per interval.
func (rl *rateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < limiterCleanupInterval {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimit returns a middleware that throttles requests per key with a token bucket.
// Requests whose key cannot be extracted are allowed.
func RateLimit(opts RateLimitOptions) Middleware {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	key := opts.Key
	if key == nil {
		key = IPKeyExtractor(false)
	}
	onLimited := opts.OnLimited
	if onLimited == nil {
		onLimited = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
		}
	}
	burst := max(opts.Burst, 1)

	rl := &rateLimiter{
		rate:        rate.Limit(opts.RPS),
		burst:       burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			l := rl.limiter(k)
			if l.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Reserve()
			delay := res.Delay()
			res.Cancel()
			retryAfter := max(int(delay.Seconds()), 1)

			logger.WarnContext(r.Context(), "rate limit exceeded",
				"route", opts.Route,
				"path", r.URL.Path,
				"retry_after", retryAfter,
			)
			metrics.RateLimited(opts.Metrics, opts.Route)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			onLimited(w, r)
		})
	}
}
