// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/i18n"
	"github.com/javajoker/party-props-backend/internal/services"
	"github.com/javajoker/party-props-backend/internal/utils"
)

// AuthRequired resolves the bearer token into an identity and stores it in the context.
// An identity already set by OptionalAuth is reused.
func AuthRequired(provider services.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetIdentityFromContext(c); ok {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		identity, err := provider.Resolve(c.Request.Context(), token)
		if err != nil {
			logrus.WithError(err).Debug("Rejected bearer token")
			utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		c.Set(utils.ContextKeyIdentity, identity)
		c.Set("user_id", identity.UserID)
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid token is present and never rejects.
func OptionalAuth(provider services.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		identity, err := provider.Resolve(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(utils.ContextKeyIdentity, identity)
		c.Set("user_id", identity.UserID)
		c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <token>", or the access_token query parameter used
// by websocket clients that cannot set headers.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("access_token"); token != "" {
			return token, true
		}
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
