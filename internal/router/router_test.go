// internal/router/router_test.go
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/i18n"
	"github.com/javajoker/party-props-backend/internal/models"
	"github.com/javajoker/party-props-backend/internal/services"
	"github.com/javajoker/party-props-backend/internal/utils"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake image body")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// stubGateway approves every charge unless declined is set.
type stubGateway struct {
	mu       sync.Mutex
	declined bool
	charges  []services.ChargeRequest
}

func (g *stubGateway) Charge(ctx context.Context, req services.ChargeRequest) (*services.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, req)
	if g.declined {
		return &services.ChargeResult{Reference: "pi_declined", Status: models.OrderStatusFailed}, nil
	}
	return &services.ChargeResult{Reference: fmt.Sprintf("pi_%d", len(g.charges)), Status: models.OrderStatusCompleted}, nil
}

func (g *stubGateway) Refund(ctx context.Context, reference string, reason string) error {
	return errors.New("not expected")
}

type APITestSuite struct {
	suite.Suite
	dir     string
	cfg     *config.Config
	store   *database.MemoryStore
	gateway *stubGateway
	router  *gin.Engine
	userID  string
	token   string
	clients int
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.ErrorLevel)
	s.Require().NoError(i18n.Initialize())
}

func (s *APITestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.cfg = &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{PublicURL: "http://api.test"},
		JWT:         config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1},
		Auth:        config.AuthConfig{Provider: "jwt"},
		Storage: config.StorageConfig{
			Driver:        "local",
			LocalPath:     s.dir,
			ImageFolder:   "product-images",
			MaxImageSize:  1024 * 1024,
			MaxImages:     5,
			AllowedImages: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		},
		Search:   config.SearchConfig{DefaultLimit: 50, MaxLimit: 100},
		Payment:  config.PaymentConfig{Currency: "usd"},
		Frontend: config.FrontendConfig{AllowedOrigins: []string{"*"}},
	}

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		start = start.Add(time.Second)
		return start
	}
	s.store = database.NewMemoryStore().WithClock(clock)

	blobs, err := services.NewLocalBlobStore(s.dir, s.cfg.Server.PublicURL+"/uploads")
	s.Require().NoError(err)

	s.gateway = &stubGateway{}
	cache := services.NoopSearchCache{}
	svc := &Services{
		Identity:  services.NewJWTIdentityProvider(s.cfg.JWT.SecretKey),
		Listings:  services.NewListingService(s.store, blobs, cache, s.cfg.Storage),
		Discovery: services.NewDiscoveryService(s.store, cache, s.cfg.Search),
		Checkout:  services.NewCheckoutService(s.store, s.gateway, s.cfg.Payment.Currency),
		Audit:     s.store,
	}
	s.router = New(s.cfg, svc)

	// Rate limiters are process-wide, so every test signs in as a fresh user.
	s.userID = "user-" + uuid.NewString()
	s.token, err = utils.GenerateJWT(s.userID, "Casey Seller", "", 1)
	s.Require().NoError(err)
}

func (s *APITestSuite) do(req *http.Request, authenticated bool) (*httptest.ResponseRecorder, envelope) {
	s.clients++
	req.RemoteAddr = fmt.Sprintf("10.1.%d.%d:5000", s.clients/250, s.clients%250+1)
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var body envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func (s *APITestSuite) get(path string, authenticated bool) (*httptest.ResponseRecorder, envelope) {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), authenticated)
}

func (s *APITestSuite) postJSON(path string, payload interface{}, authenticated bool) (*httptest.ResponseRecorder, envelope) {
	data, err := json.Marshal(payload)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, authenticated)
}

func (s *APITestSuite) postListing(fields map[string]string, images [][]byte, authenticated bool) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		s.Require().NoError(writer.WriteField(key, value))
	}
	for i, data := range images {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="photo%d.png"`, i))
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		s.Require().NoError(err)
		_, err = part.Write(data)
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.do(req, authenticated)
}

func (s *APITestSuite) seedListing(title, category, theme string, price float64, offerRental bool) string {
	listing := &models.Listing{
		Title:       title,
		Description: title + " for parties",
		Category:    category,
		Theme:       theme,
		Condition:   models.DefaultCondition,
		Price:       price,
		OfferRental: offerRental,
		Images:      []string{"https://cdn.test/" + uuid.NewString() + ".png"},
		Keywords:    services.DeriveKeywords(title, title+" for parties", category, theme),
		UserID:      "seller-1",
		SellerName:  "Sam Seller",
		Status:      models.ListingStatusAvailable,
	}
	if offerRental {
		rental := price / 2
		listing.RentalPrice = &rental
	}
	id, err := s.store.Create(context.Background(), models.ListingsCollection, listing)
	s.Require().NoError(err)
	return id
}

func validListingFields() map[string]string {
	return map[string]string{
		"title":       "  Cowboy Hat ",
		"description": "Authentic looking cowboy hat",
		"category":    "Props",
		"theme":       "Western/Cowboy",
		"price":       "25",
		"offerRental": "true",
		"rentalPrice": "10",
	}
}

func (s *APITestSuite) TestHealth() {
	w, _ := s.get("/health", false)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestProfile() {
	w, _ := s.get("/api/v1/auth/me", false)
	s.Equal(http.StatusUnauthorized, w.Code)

	w, body := s.get("/api/v1/auth/me", true)
	s.Require().Equal(http.StatusOK, w.Code)
	var data struct {
		User     models.Identity `json:"user"`
		Provider string          `json:"provider"`
	}
	s.Require().NoError(json.Unmarshal(body.Data, &data))
	s.Equal(s.userID, data.User.UserID)
	s.Equal("Casey Seller", data.User.DisplayName)
	s.Equal("jwt", data.Provider)
}

func (s *APITestSuite) TestCatalog() {
	w, body := s.get("/api/v1/catalog", false)
	s.Require().Equal(http.StatusOK, w.Code)

	var data struct {
		Catalog   models.Catalog `json:"catalog"`
		MaxImages int            `json:"maxImages"`
	}
	s.Require().NoError(json.Unmarshal(body.Data, &data))
	s.Equal(5, data.MaxImages)
	s.Contains(data.Catalog.Categories, "Props")
}

func (s *APITestSuite) TestCreateListingRequiresAuth() {
	w, body := s.postListing(validListingFields(), [][]byte{pngBytes}, false)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Require().NotNil(body.Error)
	s.Equal("UNAUTHORIZED", body.Error.Code)
	s.Equal(0, s.store.Count(models.ListingsCollection))
}

func (s *APITestSuite) TestCreateListingRejectsBadToken() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(""))
	req.Header.Set("Authorization", "Bearer not-a-token")
	w, body := s.do(req, false)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.Require().NotNil(body.Error)
	s.Equal("UNAUTHORIZED", body.Error.Code)
}

func (s *APITestSuite) TestCreateListing() {
	w, body := s.postListing(validListingFields(), [][]byte{pngBytes, pngBytes}, true)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var listing models.Listing
	s.Require().NoError(json.Unmarshal(body.Data, &listing))
	s.NotEmpty(listing.ID)
	s.Equal("Cowboy Hat", listing.Title)
	s.Equal("props", listing.Category)
	s.Equal("western/cowboy", listing.Theme)
	s.Equal(models.DefaultCondition, listing.Condition)
	s.Equal(25.0, listing.Price)
	s.Require().NotNil(listing.RentalPrice)
	s.Equal(10.0, *listing.RentalPrice)
	s.Require().NotNil(listing.RentalDuration)
	s.Equal(models.DefaultRentalDuration, *listing.RentalDuration)
	s.Equal(s.userID, listing.UserID)
	s.Equal("Casey Seller", listing.SellerName)
	s.Equal(models.ListingStatusAvailable, listing.Status)
	s.Contains(listing.Keywords, "cowboy")

	s.Require().Len(listing.Images, 2)
	prefix := "http://api.test/uploads/product-images/" + s.userID + "-"
	for i, image := range listing.Images {
		s.True(strings.HasPrefix(image, prefix), image)
		s.True(strings.HasSuffix(image, fmt.Sprintf("-%d.png", i)), image)

		stored := filepath.Join(s.dir, strings.TrimPrefix(image, "http://api.test/uploads/"))
		data, err := os.ReadFile(stored)
		s.Require().NoError(err)
		s.Equal(pngBytes, data)
	}

	s.Eventually(func() bool {
		return s.store.Count(models.AuditCollection) == 1
	}, time.Second, 10*time.Millisecond)

	w, body = s.get("/api/v1/listings/"+listing.ID, false)
	s.Require().Equal(http.StatusOK, w.Code)
	var fetched models.Listing
	s.Require().NoError(json.Unmarshal(body.Data, &fetched))
	s.Equal(listing.Images, fetched.Images)
}

func (s *APITestSuite) TestCreateListingReportsEveryInvalidField() {
	fields := validListingFields()
	delete(fields, "title")
	fields["price"] = "free"
	fields["rentalPrice"] = "0"

	w, body := s.postListing(fields, nil, true)
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(body.Error)
	s.Equal("VALIDATION_ERROR", body.Error.Code)

	var details []utils.FieldError
	s.Require().NoError(json.Unmarshal(body.Error.Details, &details))
	reported := make([]string, 0, len(details))
	for _, d := range details {
		reported = append(reported, d.Field)
	}
	s.ElementsMatch([]string{"title", "price", "rentalPrice", "images"}, reported)
	s.Equal(0, s.store.Count(models.ListingsCollection))
}

func (s *APITestSuite) TestCreateListingRejectsTooManyImages() {
	images := make([][]byte, 6)
	for i := range images {
		images[i] = pngBytes
	}

	w, body := s.postListing(validListingFields(), images, true)
	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", body.Error.Code)

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *APITestSuite) TestCreateListingRejectsNonImage() {
	w, body := s.postListing(validListingFields(), [][]byte{[]byte("plain text, not an image")}, true)

	s.Require().Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", body.Error.Code)
	s.Equal(0, s.store.Count(models.ListingsCollection))
}

func (s *APITestSuite) TestGetListingNotFound() {
	w, body := s.get("/api/v1/listings/missing", false)

	s.Equal(http.StatusNotFound, w.Code)
	s.Require().NotNil(body.Error)
	s.Equal("NOT_FOUND", body.Error.Code)
}

func (s *APITestSuite) TestSearchFiltersAndSorts() {
	s.seedListing("Cowboy Hat", "props", "western/cowboy", 25, true)
	s.seedListing("Straw Hat", "props", "hawaiian/tropical", 12, false)
	s.seedListing("Pirate Hat", "costumes", "pirate", 18, true)
	s.seedListing("Disco Ball", "decorations", "disco", 35, true)

	w, body := s.get("/api/v1/search?q=HAT&category=Props&sortBy=price_asc", false)
	s.Require().Equal(http.StatusOK, w.Code)

	var listings []models.Listing
	s.Require().NoError(json.Unmarshal(body.Data, &listings))
	s.Require().Len(listings, 2)
	s.Equal("Straw Hat", listings[0].Title)
	s.Equal("Cowboy Hat", listings[1].Title)
	s.Equal("false", w.Header().Get("X-Has-More"))

	w, body = s.get("/api/v1/search?offerRental=true&minPrice=20&sort=price&order=desc", false)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(body.Data, &listings))
	s.Require().Len(listings, 2)
	s.Equal("Disco Ball", listings[0].Title)
	s.Equal("Cowboy Hat", listings[1].Title)
}

func (s *APITestSuite) TestSearchWithoutMatchesReturnsEmptyList() {
	s.seedListing("Cowboy Hat", "props", "western/cowboy", 25, true)

	w, body := s.get("/api/v1/search?q=unicorn", false)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, string(body.Data))
}

func (s *APITestSuite) TestSearchPagination() {
	for i := 0; i < 3; i++ {
		s.seedListing(fmt.Sprintf("Lantern %d", i), "decorations", "halloween", float64(10+i), false)
	}

	w, body := s.get("/api/v1/search?page=2&limit=2", false)
	s.Require().Equal(http.StatusOK, w.Code)

	var listings []models.Listing
	s.Require().NoError(json.Unmarshal(body.Data, &listings))
	s.Require().Len(listings, 1)
	s.Equal("Lantern 0", listings[0].Title)
	s.Equal("2", w.Header().Get("X-Page"))
}

func (s *APITestSuite) TestRecentAndSimilarListings() {
	s.Require().NoError(services.SeedDemoListings(context.Background(), s.store, models.Identity{UserID: "demo", DisplayName: "Demo"}))

	w, body := s.get("/api/v1/listings/recent?limit=2", false)
	s.Require().Equal(http.StatusOK, w.Code)
	var recent []models.Listing
	s.Require().NoError(json.Unmarshal(body.Data, &recent))
	s.Require().Len(recent, 2)
	s.Equal("Pirate Costume Set", recent[0].Title)

	w, body = s.get("/api/v1/listings/"+recent[0].ID+"/similar", false)
	s.Require().Equal(http.StatusOK, w.Code)
	var similar []models.Listing
	s.Require().NoError(json.Unmarshal(body.Data, &similar))
	s.Require().Len(similar, 1)
	s.Equal("Superhero Cape", similar[0].Title)
}

func (s *APITestSuite) TestMyListingsOnlyShowsOwnListings() {
	s.seedListing("Someone Else's Hat", "props", "", 20, false)
	w, _ := s.postListing(validListingFields(), [][]byte{pngBytes}, true)
	s.Require().Equal(http.StatusCreated, w.Code)

	w, _ = s.get("/api/v1/me/listings", false)
	s.Equal(http.StatusUnauthorized, w.Code)

	w, body := s.get("/api/v1/me/listings", true)
	s.Require().Equal(http.StatusOK, w.Code)
	var listings []models.Listing
	s.Require().NoError(json.Unmarshal(body.Data, &listings))
	s.Require().Len(listings, 1)
	s.Equal(s.userID, listings[0].UserID)
}

func (s *APITestSuite) TestCheckout() {
	hat := s.seedListing("Cowboy Hat", "props", "western/cowboy", 25, true)
	ball := s.seedListing("Disco Ball", "decorations", "disco", 35.5, false)

	w, body := s.postJSON("/api/v1/checkout", services.CheckoutRequest{
		Items: []services.CheckoutItem{
			{ListingID: hat, PurchaseType: models.PurchaseTypeRent},
			{ListingID: ball, PurchaseType: models.PurchaseTypeBuy},
		},
		PaymentMethodID: "pm_card_visa",
	}, true)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	s.Require().NoError(json.Unmarshal(body.Data, &order))
	s.Equal(48.0, order.Total)
	s.Equal(models.OrderStatusCompleted, order.Status)
	s.Equal("pi_1", order.PaymentReference)
	s.Require().Len(s.gateway.charges, 1)
	s.Equal(int64(4800), s.gateway.charges[0].AmountCents)

	w, body = s.get("/api/v1/me/orders", true)
	s.Require().Equal(http.StatusOK, w.Code)
	var orders []models.Order
	s.Require().NoError(json.Unmarshal(body.Data, &orders))
	s.Require().Len(orders, 1)
	s.Equal(order.ID, orders[0].ID)
}

func (s *APITestSuite) TestCheckoutRejectsRentingBuyOnlyListing() {
	ball := s.seedListing("Disco Ball", "decorations", "disco", 35, false)

	w, body := s.postJSON("/api/v1/checkout", services.CheckoutRequest{
		Items:           []services.CheckoutItem{{ListingID: ball, PurchaseType: models.PurchaseTypeRent}},
		PaymentMethodID: "pm_card_visa",
	}, true)

	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", body.Error.Code)
	s.Empty(s.gateway.charges)
}

func (s *APITestSuite) TestCheckoutDeclined() {
	hat := s.seedListing("Cowboy Hat", "props", "western/cowboy", 25, true)
	s.gateway.declined = true

	w, body := s.postJSON("/api/v1/checkout", services.CheckoutRequest{
		Items:           []services.CheckoutItem{{ListingID: hat, PurchaseType: models.PurchaseTypeBuy}},
		PaymentMethodID: "pm_card_declined",
	}, true)

	s.Equal(http.StatusPaymentRequired, w.Code)
	s.Equal("PAYMENT_FAILED", body.Error.Code)
	s.Equal(0, s.store.Count(models.OrdersCollection))
}

func (s *APITestSuite) TestCheckoutWithoutGateway() {
	cache := services.NoopSearchCache{}
	blobs, err := services.NewLocalBlobStore(s.dir, "")
	s.Require().NoError(err)
	s.router = New(s.cfg, &Services{
		Identity:  services.NewJWTIdentityProvider(s.cfg.JWT.SecretKey),
		Listings:  services.NewListingService(s.store, blobs, cache, s.cfg.Storage),
		Discovery: services.NewDiscoveryService(s.store, cache, s.cfg.Search),
		Checkout:  services.NewCheckoutService(s.store, nil, "usd"),
	})
	hat := s.seedListing("Cowboy Hat", "props", "western/cowboy", 25, true)

	w, body := s.postJSON("/api/v1/checkout", services.CheckoutRequest{
		Items:           []services.CheckoutItem{{ListingID: hat, PurchaseType: models.PurchaseTypeBuy}},
		PaymentMethodID: "pm_card_visa",
	}, true)

	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal("SERVICE_UNAVAILABLE", body.Error.Code)

	w, body = s.get("/api/v1/checkout/config", false)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"enabled":false,"publishableKey":"","currency":"usd"}`, string(body.Data))
}

func (s *APITestSuite) TestLiveSearch() {
	s.seedListing("Cowboy Hat", "props", "western/cowboy", 25, true)
	s.seedListing("Disco Ball", "decorations", "disco", 35, true)

	server := httptest.NewServer(s.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/search/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer resp.Body.Close()
	defer conn.Close()

	s.Require().NoError(conn.WriteJSON(map[string]interface{}{"id": "q1", "term": "disco"}))
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))

	var result struct {
		Type     string           `json:"type"`
		ID       string           `json:"id"`
		Seq      uint64           `json:"seq"`
		Listings []models.Listing `json:"listings"`
	}
	s.Require().NoError(conn.ReadJSON(&result))
	s.Equal("results", result.Type)
	s.Equal("q1", result.ID)
	s.Equal(uint64(1), result.Seq)
	s.Require().Len(result.Listings, 1)
	s.Equal("Disco Ball", result.Listings[0].Title)

	s.Require().NoError(conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_, _, err = conn.ReadMessage()
	s.Error(err)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
