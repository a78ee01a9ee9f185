// internal/services/checkout_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/models"
	"github.com/javajoker/party-props-backend/internal/utils"
)

type CheckoutService struct {
	store    database.DocumentStore
	gateway  PaymentGateway
	currency string
}

type CheckoutItem struct {
	ListingID    string              `json:"listingId" validate:"required"`
	PurchaseType models.PurchaseType `json:"purchaseType" validate:"required,oneof=buy rent"`
}

type CheckoutRequest struct {
	Items           []CheckoutItem `json:"items" validate:"required,min=1,max=20,dive"`
	PaymentMethodID string         `json:"paymentMethodId" validate:"required"`
}

func NewCheckoutService(store database.DocumentStore, gateway PaymentGateway, currency string) *CheckoutService {
	if currency == "" {
		currency = "usd"
	}
	return &CheckoutService{store: store, gateway: gateway, currency: currency}
}

// Checkout prices the cart from the stored listings, charges it, and records the order.
func (s *CheckoutService) Checkout(ctx context.Context, identity *models.Identity, req *CheckoutRequest) (*models.Order, error) {
	if identity == nil || identity.UserID == "" {
		return nil, ErrAuthRequired
	}
	if req == nil {
		return nil, NewValidationError("request", "required", "request is required")
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}
	if s.gateway == nil {
		return nil, ErrPaymentsUnavailable
	}

	items, totalCents, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:        identity.UserID,
		Items:         items,
		Total:         float64(totalCents) / 100,
		Currency:      s.currency,
		PaymentMethod: req.PaymentMethodID,
		Status:        models.OrderStatusPending,
	}

	logger := logrus.WithFields(logrus.Fields{
		"user_id": identity.UserID,
		"items":   len(items),
		"total":   order.Total,
	})

	charge, err := s.gateway.Charge(ctx, ChargeRequest{
		AmountCents:     totalCents,
		Currency:        s.currency,
		PaymentMethodID: req.PaymentMethodID,
		Description:     fmt.Sprintf("Party Props order (%d items)", len(items)),
		Metadata:        map[string]string{"user_id": identity.UserID},
	})
	if err != nil {
		logger.WithError(err).Warn("Charge failed")
		return nil, &PaymentError{Err: err}
	}
	if charge.Status == models.OrderStatusFailed {
		return nil, &PaymentError{Reference: charge.Reference, Err: errors.New("payment was declined")}
	}

	order.PaymentReference = charge.Reference
	order.Status = charge.Status

	id, err := s.store.Create(ctx, models.OrdersCollection, order)
	if err != nil {
		logger.WithError(err).WithField("payment_reference", charge.Reference).Error("Failed to save order, refunding")
		if refundErr := s.gateway.Refund(ctx, charge.Reference, "requested_by_customer"); refundErr != nil {
			logger.WithError(refundErr).Error("Refund after failed order write also failed")
		}
		return nil, &PersistenceError{Err: err}
	}
	order.ID = id

	logger.WithField("order_id", id).Info("Order placed")
	return order, nil
}

// Orders returns the user's orders, newest first.
func (s *CheckoutService) Orders(ctx context.Context, identity *models.Identity, params utils.PaginationParams) ([]models.Order, error) {
	if identity == nil || identity.UserID == "" {
		return nil, ErrAuthRequired
	}

	q := database.NewQuery(models.OrdersCollection).
		Where("userId", database.OpEqual, identity.UserID).
		OrderBy("createdAt", database.Desc).
		Paginate(params.Limit, params.Offset())

	var orders []models.Order
	if err := s.store.Query(ctx, q, &orders); err != nil {
		return nil, &QueryError{Err: err}
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *CheckoutService) priceItems(ctx context.Context, cart []CheckoutItem) ([]models.OrderItem, int64, error) {
	verr := &ValidationError{}
	items := make([]models.OrderItem, 0, len(cart))
	var totalCents int64

	for i, item := range cart {
		field := fmt.Sprintf("items[%d]", i)

		var listing models.Listing
		if err := s.store.Get(ctx, models.ListingsCollection, item.ListingID, &listing); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				verr.add(field, "exists", "item "+item.ListingID+" no longer exists")
				continue
			}
			return nil, 0, &QueryError{Err: err}
		}
		if listing.Status != models.ListingStatusAvailable {
			verr.add(field, "available", listing.Title+" is no longer available")
			continue
		}

		price := listing.Price
		if item.PurchaseType == models.PurchaseTypeRent {
			if !listing.OfferRental || listing.RentalPrice == nil {
				verr.add(field, "rentable", listing.Title+" is not offered for rent")
				continue
			}
			price = *listing.RentalPrice
		}

		totalCents += int64(math.Round(price * 100))
		items = append(items, models.OrderItem{
			ListingID:    listing.ID,
			Title:        listing.Title,
			Price:        price,
			PurchaseType: item.PurchaseType,
		})
	}

	if len(verr.Fields) > 0 {
		return nil, 0, verr
	}
	return items, totalCents, nil
}
