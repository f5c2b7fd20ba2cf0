package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/profile-portal/internal/domain/auth"
)

func TestFakeAuthAPI_Defaults(t *testing.T) {
	api := NewFakeAuthAPI()
	ctx := context.Background()

	res, err := api.Login(ctx, domainauth.Credentials{Username: "bob", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "token-bob", res.Token)
	assert.Equal(t, "bob", res.User.Username)
	assert.Len(t, api.LoginCalls(), 1)

	_, err = api.Profile(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)

	api.SetAuthHeader("abc")
	assert.Equal(t, "Bearer abc", api.AuthHeader())
	user, err := api.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, []string{"", "Bearer abc"}, api.ProfileHeaders())

	api.SetAuthHeader("")
	assert.Empty(t, api.AuthHeader())
}

func TestFakeAuthAPI_Register(t *testing.T) {
	api := NewFakeAuthAPI()
	res, err := api.Register(context.Background(), domainauth.Registration{Name: "Al", Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "token-alice", res.Token)
	assert.Equal(t, "Al", res.User.Name)
	assert.Len(t, api.RegisterCalls(), 1)
}

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	require.Error(t, store.Save(ctx, domainauth.StoredToken{Token: "x"}))

	require.NoError(t, store.Save(ctx, domainauth.StoredToken{SessionID: "s1", Token: "abc"}))
	tok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Token)
	assert.Equal(t, "abc", store.Token("s1"))

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.Equal(t, ErrNotFound, err)
	assert.Empty(t, store.Token("s1"))
}
