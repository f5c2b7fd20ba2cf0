package httpx

import (
	"crypto/rand"
	"encoding/gob"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

const (
	flashSessionName = "portal_flash"
	flashKey         = "notices"
	flashMaxAge      = 300
	minFlashKeyLen   = 32
)

func init() {
	gob.Register(domainauth.Notice{})
}

// FlashConfig configures the signed cookie that carries notices across a redirect.
type FlashConfig struct {
	Secret string
	Domain string
	// DevMode allows a weak or missing secret by generating a random key per process.
	DevMode bool
	Logger  *slog.Logger
}

// FlashStore keeps notices in a short-lived signed cookie so they survive a full-page redirect.
type FlashStore struct {
	store  *sessions.CookieStore
	logger *slog.Logger
}

// NewFlashStore builds a FlashStore. Outside dev mode the secret must be at least 32 bytes.
func NewFlashStore(cfg FlashConfig) (*FlashStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	key := []byte(cfg.Secret)
	if len(key) < minFlashKeyLen {
		if !cfg.DevMode {
			return nil, errors.New("flash secret must be at least 32 bytes")
		}
		key = make([]byte, minFlashKeyLen)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		logger.Warn("SESSION_FLASH_SECRET not set; using a random key for this process")
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &FlashStore{store: store, logger: logger}, nil
}

// Add queues notices for the next page render.
func (f *FlashStore) Add(w http.ResponseWriter, r *http.Request, notices ...domainauth.Notice) {
	if f == nil || len(notices) == 0 {
		return
	}
	sess, err := f.session(r)
	if err != nil {
		return
	}
	for _, n := range notices {
		sess.AddFlash(n, flashKey)
	}
	if err := sess.Save(r, w); err != nil {
		f.logger.ErrorContext(r.Context(), "save flash notices", "error", err)
	}
}

// Pop returns and clears the queued notices.
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []domainauth.Notice {
	if f == nil {
		return nil
	}
	if _, err := r.Cookie(flashSessionName); err != nil {
		return nil
	}
	sess, err := f.session(r)
	if err != nil {
		return nil
	}
	flashes := sess.Flashes(flashKey)
	if len(flashes) == 0 {
		return nil
	}
	if err := sess.Save(r, w); err != nil {
		f.logger.ErrorContext(r.Context(), "clear flash notices", "error", err)
	}

	out := make([]domainauth.Notice, 0, len(flashes))
	for _, v := range flashes {
		if n, ok := v.(domainauth.Notice); ok {
			out = append(out, n)
		}
	}
	return out
}

func (f *FlashStore) session(r *http.Request) (*sessions.Session, error) {
	sess, err := f.store.Get(r, flashSessionName)
	if err != nil {
		// A cookie signed with a rotated key decodes to a fresh session.
		f.logger.DebugContext(r.Context(), "discarding unreadable flash cookie", "error", err)
		if sess == nil {
			return nil, err
		}
	}
	sess.Options.Secure = isSecureRequest(r)
	return sess, nil
}
