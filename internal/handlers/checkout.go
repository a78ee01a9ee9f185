// internal/handlers/checkout.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/i18n"
	"github.com/javajoker/party-props-backend/internal/services"
	"github.com/javajoker/party-props-backend/internal/utils"
)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	payment         config.PaymentConfig
	search          config.SearchConfig
}

func NewCheckoutHandler(checkoutService *services.CheckoutService, payment config.PaymentConfig, search config.SearchConfig) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		payment:         payment,
		search:          search,
	}
}

// GET /checkout/config
func (h *CheckoutHandler) GetConfig(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"enabled":        h.payment.StripeSecretKey != "",
		"publishableKey": h.payment.StripePublishableKey,
		"currency":       h.payment.Currency,
	})
}

// POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	identity, ok := utils.GetIdentityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), identity, &req)
	if err != nil {
		respondError(c, err, "order")
		return
	}

	c.Set("resource_id", order.ID)
	utils.CreatedResponse(c, order)
}

// GET /me/orders
func (h *CheckoutHandler) GetMyOrders(c *gin.Context) {
	identity, ok := utils.GetIdentityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c, h.search.DefaultLimit, h.search.MaxLimit)
	orders, err := h.checkoutService.Orders(c.Request.Context(), identity, params)
	if err != nil {
		respondError(c, err, "order")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, len(orders), params))
}
