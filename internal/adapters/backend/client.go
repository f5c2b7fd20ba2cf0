// Package backend is the HTTP client adapter for the remote accounts API
// (POST /login, POST /register, GET /profile).
package backend

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	apperrors "github.com/target/profile-portal/internal/errors"
	"github.com/target/profile-portal/internal/ports"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3000"

var _ ports.AuthAPI = (*Client)(nil)

// Client calls the accounts API at one base URL.
// It holds a single mutable bearer token that is applied to every request sent after it is set.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.RWMutex
	header string
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each request; zero means no timeout.
	Timeout time.Duration
	// HTTPClient overrides the transport (tests); Timeout is ignored when set.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a Client with no bearer token.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.With("component", "backend_client"),
	}
}

// Fork returns a Client sharing the base URL and connection pool but with its own,
// initially empty, bearer token. Each browser session gets its own fork.
func (c *Client) Fork() *Client {
	return &Client{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		logger:     c.logger,
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetAuthHeader makes all subsequent requests carry "Authorization: Bearer <token>".
// An empty token removes the header entirely.
func (c *Client) SetAuthHeader(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == "" {
		c.header = ""
		return
	}
	c.header = "Bearer " + token
}

// AuthHeader returns the current Authorization header value, or "" when none is set.
func (c *Client) AuthHeader() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.header
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResult, error) {
	var out domainauth.AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/login", creds, &out); err != nil {
		return domainauth.AuthResult{}, err
	}
	if err := validateAuthResult(out); err != nil {
		return domainauth.AuthResult{}, err
	}
	return out, nil
}

// Register creates an account and returns its token and user record.
func (c *Client) Register(ctx context.Context, reg domainauth.Registration) (domainauth.AuthResult, error) {
	var out domainauth.AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/register", reg, &out); err != nil {
		if apperrors.IsConflict(err) {
			// The only conflict register can report is a taken username.
			fieldErr := apperrors.ValidationField(domainauth.FieldUsername, apperrors.GetMessage(err))
			fieldErr.Status = http.StatusConflict
			return domainauth.AuthResult{}, fieldErr
		}
		return domainauth.AuthResult{}, err
	}
	if err := validateAuthResult(out); err != nil {
		return domainauth.AuthResult{}, err
	}
	return out, nil
}

type profileResponse struct {
	User *domainauth.User `json:"user"`
}

// Profile fetches the user identified by the current bearer token.
func (c *Client) Profile(ctx context.Context) (domainauth.User, error) {
	var out profileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return domainauth.User{}, err
	}
	if out.User == nil {
		return domainauth.User{}, malformed("backend response has no user")
	}
	return *out.User, nil
}
