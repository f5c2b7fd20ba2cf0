package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

const testFlashSecret = "0123456789abcdef0123456789abcdef"

func TestNewFlashStore_Secret(t *testing.T) {
	_, err := NewFlashStore(FlashConfig{Secret: "short"})
	require.Error(t, err)

	store, err := NewFlashStore(FlashConfig{Secret: "short", DevMode: true})
	require.NoError(t, err)
	assert.NotNil(t, store)

	store, err = NewFlashStore(FlashConfig{Secret: testFlashSecret})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestFlashStore_AddPop(t *testing.T) {
	store, err := NewFlashStore(FlashConfig{Secret: testFlashSecret})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	store.Add(rr, httptest.NewRequest(http.MethodPost, "/login", nil),
		domainauth.Notice{Message: "Login successful!", Kind: domainauth.NoticeSuccess})

	cookie := findCookie(t, rr, flashSessionName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookie)
	popRR := httptest.NewRecorder()
	notices := store.Pop(popRR, req)
	require.Len(t, notices, 1)
	assert.Equal(t, "Login successful!", notices[0].Message)
	assert.Equal(t, domainauth.NoticeSuccess, notices[0].Kind)

	cleared := findCookie(t, popRR, flashSessionName)
	require.NotNil(t, cleared, "popping rewrites the cookie without the notices")

	again := httptest.NewRequest(http.MethodGet, "/profile", nil)
	again.AddCookie(cleared)
	assert.Empty(t, store.Pop(httptest.NewRecorder(), again))
}

func TestFlashStore_PopWithoutCookie(t *testing.T) {
	store, err := NewFlashStore(FlashConfig{Secret: testFlashSecret})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	assert.Nil(t, store.Pop(rr, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Empty(t, rr.Result().Cookies())
}

func TestFlashStore_ForeignKeyCookieIgnored(t *testing.T) {
	issuer, err := NewFlashStore(FlashConfig{Secret: testFlashSecret})
	require.NoError(t, err)
	reader, err := NewFlashStore(FlashConfig{Secret: strings.Repeat("z", 32)})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	issuer.Add(rr, httptest.NewRequest(http.MethodPost, "/", nil), domainauth.Notice{Message: "hi"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(findCookie(t, rr, flashSessionName))
	assert.Empty(t, reader.Pop(httptest.NewRecorder(), req))
}

func TestFlashStore_Nil(t *testing.T) {
	var store *FlashStore
	assert.NotPanics(t, func() {
		store.Add(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), domainauth.Notice{Message: "x"})
		assert.Nil(t, store.Pop(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
	})
}
