// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/models"
)

// PaymentGateway charges and refunds amounts in the currency's minor unit.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, reference string, reason string) error
}

type ChargeRequest struct {
	AmountCents     int64
	Currency        string
	PaymentMethodID string
	Description     string
	Metadata        map[string]string
}

type ChargeResult struct {
	Reference    string
	Status       models.OrderStatus
	ClientSecret string
}

// NewPaymentGateway returns nil when no Stripe key is configured.
func NewPaymentGateway(cfg config.PaymentConfig) PaymentGateway {
	if cfg.StripeSecretKey == "" {
		return nil
	}
	return NewStripeGateway(cfg.StripeSecretKey)
}

type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	// Initialize Stripe
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountCents),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(req.PaymentMethodID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &ChargeResult{
		Reference:    pi.ID,
		Status:       orderStatusFor(pi.Status),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, reference string, reason string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Reason:        stripe.String(reason),
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to process refund: %w", err)
	}
	return nil
}

func orderStatusFor(status stripe.PaymentIntentStatus) models.OrderStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return models.OrderStatusCompleted
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresCapture,
		stripe.PaymentIntentStatusRequiresConfirmation:
		return models.OrderStatusPending
	default:
		return models.OrderStatusFailed
	}
}
