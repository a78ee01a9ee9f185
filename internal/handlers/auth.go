// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/party-props-backend/internal/utils"
)

// AuthHandler exposes the identity resolved from the bearer token. Sign-in itself happens
// against the identity provider, not this service.
type AuthHandler struct {
	provider string
}

func NewAuthHandler(provider string) *AuthHandler {
	return &AuthHandler{provider: provider}
}

// GET /auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	identity, ok := utils.GetIdentityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user":     identity,
		"provider": h.provider,
	})
}
