// cmd/devtoken/main.go
package main

import (
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/utils"
)

// devtoken mints a bearer token for the jwt auth provider.
func main() {
	userID := flag.String("user", "", "user id to embed in the token")
	name := flag.String("name", "", "display name")
	photo := flag.String("photo", "", "photo URL")
	ttl := flag.Int("ttl", 0, "lifetime in hours (defaults to JWT_ACCESS_TTL)")
	flag.Parse()

	if *userID == "" {
		logrus.Fatal("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if cfg.Auth.Provider != "jwt" {
		logrus.Warnf("AUTH_PROVIDER is %q; the server will not accept this token", cfg.Auth.Provider)
	}

	hours := *ttl
	if hours <= 0 {
		hours = cfg.JWT.AccessTokenTTL
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	token, err := utils.GenerateJWT(*userID, *name, *photo, hours)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to sign token")
	}
	fmt.Println(token)
}
