package httpx

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	mockauth "github.com/target/profile-portal/internal/mocks/auth"
	"github.com/target/profile-portal/internal/ports"
	"github.com/target/profile-portal/internal/service"
)

// requireTemplateRenderer creates a TemplateRenderer from the working tree templates.
func requireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: os.DirFS(TemplatePathFromTest)})
	require.NoError(t, err)
	return tr
}

// portalHarness runs the full router behind the production middleware against fake backends.
type portalHarness struct {
	t       *testing.T
	server  *httptest.Server
	client  *http.Client
	tokens  *mockauth.MemoryTokenStore
	reg     *service.SessionRegistry
	mu      sync.Mutex
	apis    []*mockauth.FakeAuthAPI
	baseURL *url.URL
}

type harnessOptions struct {
	// configure adjusts every per-session fake backend client.
	configure func(*mockauth.FakeAuthAPI)
	rateLimit RateLimitSettings
}

func newPortalHarness(t *testing.T, opts harnessOptions) *portalHarness {
	t.Helper()

	h := &portalHarness{t: t, tokens: mockauth.NewMemoryTokenStore()}
	h.reg = service.NewSessionRegistry(service.SessionRegistryOptions{
		NewAPI: func() ports.AuthAPI {
			api := mockauth.NewFakeAuthAPI()
			if opts.configure != nil {
				opts.configure(api)
			}
			h.mu.Lock()
			h.apis = append(h.apis, api)
			h.mu.Unlock()
			return api
		},
		Tokens: h.tokens,
	})

	flash, err := NewFlashStore(FlashConfig{Secret: strings.Repeat("k", 32)})
	require.NoError(t, err)

	router, err := NewRouter(RouterServices{
		Sessions:      h.reg,
		SessionCookie: SessionCookieConfig{Name: "session_id"},
		Flash:         flash,
		RateLimit:     opts.rateLimit,
		TemplateFS:    os.DirFS(TemplatePathFromTest),
		StaticFS:      os.DirFS("../../frontend/static"),
	})
	require.NoError(t, err)

	h.server = httptest.NewServer(Chain(router, CSRFProtection(CSRFConfig{})))
	t.Cleanup(h.server.Close)
	h.baseURL, err = url.Parse(h.server.URL)
	require.NoError(t, err)
	h.client = h.newClient()
	return h
}

// newClient returns a browser-like client with its own cookie jar.
// Redirects are not followed so tests can assert on them.
func (h *portalHarness) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(h.t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (h *portalHarness) cookie(c *http.Client, name string) string {
	for _, ck := range c.Jar.Cookies(h.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

type harnessResponse struct {
	*http.Response
	Body string
}

func (h *portalHarness) do(c *http.Client, req *http.Request) harnessResponse {
	h.t.Helper()
	resp, err := c.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return harnessResponse{Response: resp, Body: string(body)}
}

func (h *portalHarness) get(path string, htmx bool) harnessResponse {
	return h.getWith(h.client, path, htmx)
}

func (h *portalHarness) getWith(c *http.Client, path string, htmx bool) harnessResponse {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.server.URL+path, nil)
	require.NoError(h.t, err)
	if htmx {
		req.Header.Set("Hx-Request", "true")
	}
	return h.do(c, req)
}

// post submits a form the way the page does, with the CSRF token from the cookie jar.
func (h *portalHarness) post(path string, form url.Values, htmx bool) harnessResponse {
	return h.postWith(h.client, path, form, htmx)
}

func (h *portalHarness) postWith(c *http.Client, path string, form url.Values, htmx bool) harnessResponse {
	h.t.Helper()
	if h.cookie(c, DefaultCSRFCookieName) == "" {
		h.getWith(c, "/login", false)
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, h.cookie(c, DefaultCSRFCookieName))

	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("Hx-Request", "true")
	}
	return h.do(c, req)
}

// lastAPI returns the fake backend client of the most recently created session.
func (h *portalHarness) lastAPI() *mockauth.FakeAuthAPI {
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(h.t, h.apis)
	return h.apis[len(h.apis)-1]
}

func loginValues(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func registerValues(name, username, password, confirm string) url.Values {
	return url.Values{
		"name":            {name},
		"username":        {username},
		"password":        {password},
		"confirmPassword": {confirm},
	}
}

// ContainsAll reports whether s contains every one of subs.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
