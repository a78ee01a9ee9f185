// internal/handlers/errors_test.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/party-props-backend/internal/i18n"
	"github.com/javajoker/party-props-backend/internal/services"
	"github.com/javajoker/party-props-backend/internal/utils"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.FatalLevel)
	require.NoError(t, i18n.Initialize())

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", services.NewValidationError("title", "required", "title is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"auth", fmt.Errorf("resolve: %w", services.ErrAuthRequired), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not found", services.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"upload", &services.UploadError{Index: 1, Path: "a/b.png", Err: errors.New("reset")}, http.StatusBadGateway, "UPLOAD_FAILED"},
		{"persistence", &services.PersistenceError{Err: errors.New("disk full")}, http.StatusInternalServerError, "PERSISTENCE_FAILED"},
		{"query", &services.QueryError{Err: errors.New("index missing")}, http.StatusServiceUnavailable, "QUERY_FAILED"},
		{"payment", &services.PaymentError{Reference: "pi_1", Err: errors.New("declined")}, http.StatusPaymentRequired, "PAYMENT_FAILED"},
		{"payments unavailable", services.ErrPaymentsUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)

			respondError(c, tt.err, listingResource)

			assert.Equal(t, tt.status, w.Code)
			var body utils.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestRespondErrorUploadMessageIsOneBased(t *testing.T) {
	require.NoError(t, i18n.Initialize())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/listings", nil)

	respondError(c, &services.UploadError{Index: 2, Err: errors.New("timeout")}, listingResource)

	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error.Message, "3")
}

func TestRespondErrorQueryFailureKeepsEmptyData(t *testing.T) {
	require.NoError(t, i18n.Initialize())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)

	respondError(c, &services.QueryError{Err: errors.New("unavailable")}, listingResource)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.JSONEq(t, `[]`, string(body["data"]))
}

func TestRespondErrorCanceledWritesNothing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)

	respondError(c, fmt.Errorf("query: %w", context.Canceled), listingResource)

	assert.True(t, c.IsAborted())
	assert.Empty(t, w.Body.String())
}

func TestSearchQueryFilters(t *testing.T) {
	minPrice := 10.0
	q := SearchQuery{Term: "hat", Category: "Props", MinPrice: &minPrice, OfferRental: true, SortBy: "price_asc", Page: 2, Limit: 5}
	filters := q.Filters()
	assert.Equal(t, "Props", filters.Category)
	assert.Equal(t, &minPrice, filters.MinPrice)
	assert.True(t, filters.OfferRentalOnly)
	assert.Equal(t, "price_asc", filters.SortBy.String())
	assert.Equal(t, 2, filters.Page)
	assert.Equal(t, 5, filters.Limit)

	legacy := SearchQuery{Sort: "price", Order: "desc"}
	assert.Equal(t, "price_desc", legacy.Filters().SortBy.String())

	assert.Equal(t, "createdAt_desc", SearchQuery{}.Filters().SortBy.String())
}
