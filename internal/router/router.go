// internal/router/router.go
package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/handlers"
	"github.com/javajoker/party-props-backend/internal/middleware"
	"github.com/javajoker/party-props-backend/internal/services"
)

// Services are the collaborators the HTTP layer is built on. Tests construct them
// directly; Initialize builds them from configuration.
type Services struct {
	Identity  services.IdentityProvider
	Listings  *services.ListingService
	Discovery *services.DiscoveryService
	Checkout  *services.CheckoutService
	// Audit receives an entry per state-changing request; nil disables auditing.
	Audit database.DocumentStore
}

// NewServices wires the services to the configured backends.
func NewServices(ctx context.Context, cfg *config.Config, backends *database.Backends) (*Services, error) {
	blobs, err := services.NewBlobStore(ctx, cfg, backends.Firebase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	identity, err := services.NewIdentityProvider(ctx, cfg, backends.Firebase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	cache := services.NewSearchCache(backends.Redis, cfg.Search.CacheTTL)

	return &Services{
		Identity:  identity,
		Listings:  services.NewListingService(backends.Store, blobs, cache, cfg.Storage),
		Discovery: services.NewDiscoveryService(backends.Store, cache, cfg.Search),
		Checkout:  services.NewCheckoutService(backends.Store, services.NewPaymentGateway(cfg.Payment), cfg.Payment.Currency),
		Audit:     backends.Store,
	}, nil
}

func Initialize(ctx context.Context, cfg *config.Config, backends *database.Backends) (*gin.Engine, error) {
	svc, err := NewServices(ctx, cfg, backends)
	if err != nil {
		return nil, err
	}
	return New(cfg, svc), nil
}

// New builds the engine and registers every route.
func New(cfg *config.Config, svc *Services) *gin.Engine {
	listingHandler := handlers.NewListingHandler(svc.Listings, svc.Discovery, cfg.Storage, cfg.Search)
	searchHandler := handlers.NewSearchHandler(svc.Discovery, cfg.Search, cfg.Frontend)
	checkoutHandler := handlers.NewCheckoutHandler(svc.Checkout, cfg.Payment, cfg.Search)
	authHandler := handlers.NewAuthHandler(cfg.Auth.Provider)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend))
	r.Use(middleware.I18nMiddleware())

	// Leave headroom for multipart framing over the largest allowed selection.
	r.MaxMultipartMemory = cfg.Storage.MaxImageSize*int64(cfg.Storage.MaxImages) + (1 << 20)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	if cfg.Storage.Driver == "local" {
		r.Static("/uploads", cfg.Storage.LocalPath)
	}

	// A valid token keys the general limiter by user instead of client IP.
	v1 := r.Group("/api/v1")
	v1.Use(middleware.OptionalAuth(svc.Identity))
	v1.Use(middleware.GeneralRateLimit())
	if svc.Audit != nil {
		v1.Use(middleware.AuditLog(svc.Audit))
	}
	{
		v1.GET("/catalog", listingHandler.GetCatalog)

		// Discovery
		v1.GET("/search", searchHandler.Search)
		v1.GET("/search/live", searchHandler.LiveSearch)

		listings := v1.Group("/listings")
		{
			listings.GET("/recent", listingHandler.GetRecentListings)
			listings.GET("/:id", listingHandler.GetListing)
			listings.GET("/:id/similar", listingHandler.GetSimilarListings)
			listings.POST("", middleware.AuthRequired(svc.Identity), middleware.UploadRateLimit(), listingHandler.CreateListing)
		}

		v1.GET("/checkout/config", checkoutHandler.GetConfig)

		// Authenticated routes
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(svc.Identity))
		{
			protected.GET("/auth/me", authHandler.GetProfile)
			protected.GET("/me/listings", listingHandler.GetMyListings)
			protected.GET("/me/orders", checkoutHandler.GetMyOrders)
			protected.POST("/checkout", checkoutHandler.Checkout)
		}
	}

	return r
}
