// internal/services/identity_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/party-props-backend/internal/utils"
)

func TestJWTIdentityProvider(t *testing.T) {
	provider := NewJWTIdentityProvider("test-secret")

	token, err := utils.GenerateJWT("user-9", "Jordan", "https://example.com/j.png", 1)
	require.NoError(t, err)

	identity, err := provider.Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", identity.UserID)
	assert.Equal(t, "Jordan", identity.DisplayName)
	assert.Equal(t, "https://example.com/j.png", identity.PhotoURL)
}

func TestJWTIdentityProvider_Rejects(t *testing.T) {
	provider := NewJWTIdentityProvider("test-secret")

	expired, err := utils.GenerateJWT("user-9", "Jordan", "", -1)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not.a.jwt",
		"expired": expired,
	} {
		_, err := provider.Resolve(context.Background(), token)
		assert.ErrorIs(t, err, ErrAuthRequired, name)
	}

	utils.SetJWTSecret("other-secret")
	forged, err := utils.GenerateJWT("user-9", "Jordan", "", 1)
	require.NoError(t, err)
	provider = NewJWTIdentityProvider("test-secret")
	_, err = provider.Resolve(context.Background(), forged)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

type mockFirebaseAuth struct {
	mock.Mock
}

func (m *mockFirebaseAuth) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	args := m.Called(ctx, idToken)
	if tok := args.Get(0); tok != nil {
		return tok.(*auth.Token), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFirebaseAuth) GetUser(ctx context.Context, uid string) (*auth.UserRecord, error) {
	args := m.Called(ctx, uid)
	if user := args.Get(0); user != nil {
		return user.(*auth.UserRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestFirebaseIdentityProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("profile from claims", func(t *testing.T) {
		client := &mockFirebaseAuth{}
		client.On("VerifyIDToken", ctx, "id-token").Return(&auth.Token{
			UID:    "fb-1",
			Claims: map[string]interface{}{"name": "Riley", "picture": "https://example.com/r.png"},
		}, nil)
		provider := &FirebaseIdentityProvider{client: client}

		identity, err := provider.Resolve(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, "fb-1", identity.UserID)
		assert.Equal(t, "Riley", identity.DisplayName)
		assert.Equal(t, "https://example.com/r.png", identity.PhotoURL)
		client.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("profile from user record", func(t *testing.T) {
		client := &mockFirebaseAuth{}
		client.On("VerifyIDToken", ctx, "id-token").Return(&auth.Token{UID: "fb-1", Claims: map[string]interface{}{}}, nil)
		client.On("GetUser", ctx, "fb-1").Return(&auth.UserRecord{
			UserInfo: &auth.UserInfo{DisplayName: "Riley", PhotoURL: "https://example.com/r.png"},
		}, nil)
		provider := &FirebaseIdentityProvider{client: client}

		identity, err := provider.Resolve(ctx, "id-token")
		require.NoError(t, err)
		assert.Equal(t, "Riley", identity.DisplayName)
		assert.Equal(t, "https://example.com/r.png", identity.PhotoURL)
		client.AssertExpectations(t)
	})

	t.Run("rejects", func(t *testing.T) {
		client := &mockFirebaseAuth{}
		client.On("VerifyIDToken", ctx, "revoked").Return(nil, errors.New("id token has been revoked"))
		client.On("VerifyIDToken", ctx, "deleted-user").Return(&auth.Token{UID: "fb-2", Claims: map[string]interface{}{}}, nil)
		client.On("GetUser", ctx, "fb-2").Return(nil, errors.New("no user exists with the uid"))
		provider := &FirebaseIdentityProvider{client: client}

		for _, token := range []string{"", "revoked", "deleted-user"} {
			_, err := provider.Resolve(ctx, token)
			assert.ErrorIs(t, err, ErrAuthRequired, token)
		}
	})
}
