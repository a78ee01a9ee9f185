// internal/services/identity_service.go
package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/models"
	"github.com/javajoker/party-props-backend/internal/utils"
)

// IdentityProvider turns a bearer token into the signed-in user. Every failure wraps ErrAuthRequired.
type IdentityProvider interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

func NewIdentityProvider(ctx context.Context, cfg *config.Config, app *firebase.App) (IdentityProvider, error) {
	switch cfg.Auth.Provider {
	case "jwt":
		return NewJWTIdentityProvider(cfg.JWT.SecretKey), nil
	case "firebase":
		if app == nil {
			return nil, fmt.Errorf("firebase auth requires a firebase app")
		}
		return NewFirebaseIdentityProvider(ctx, app)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

type JWTIdentityProvider struct{}

func NewJWTIdentityProvider(secret string) *JWTIdentityProvider {
	utils.SetJWTSecret(secret)
	return &JWTIdentityProvider{}
}

func (p *JWTIdentityProvider) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	claims, err := utils.ValidateJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	return &models.Identity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}, nil
}

// firebaseAuth is the part of *auth.Client the provider uses.
type firebaseAuth interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

type FirebaseIdentityProvider struct {
	client firebaseAuth
}

func NewFirebaseIdentityProvider(ctx context.Context, app *firebase.App) (*FirebaseIdentityProvider, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}
	return &FirebaseIdentityProvider{client: client}, nil
}

func (p *FirebaseIdentityProvider) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	verified, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	identity := &models.Identity{UserID: verified.UID}
	if name, ok := verified.Claims["name"].(string); ok {
		identity.DisplayName = name
	}
	if picture, ok := verified.Claims["picture"].(string); ok {
		identity.PhotoURL = picture
	}

	// ID tokens minted before a profile update carry stale or missing profile claims.
	if identity.DisplayName == "" {
		user, err := p.client.GetUser(ctx, verified.UID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load user %s: %v", ErrAuthRequired, verified.UID, err)
		}
		if user.UserInfo != nil {
			identity.DisplayName = user.DisplayName
			if identity.PhotoURL == "" {
				identity.PhotoURL = user.PhotoURL
			}
		}
	}

	return identity, nil
}
