// Package payment lets a customer authorize the listing price before
// booking. The returned reference is the booking's capture id.
package payment

import (
	"context"
	"errors"
	"strconv"

	"taskhub/internal/domain/business"
	"taskhub/internal/middleware"
	gateway "taskhub/internal/payment"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
)

type AuthorizeRequest struct {
	BusinessID int64  `json:"business_id" validate:"required,gt=0"`
	Token      string `json:"token" validate:"required,max=255"`
}

type Service struct {
	businesses businessReader
	gateway    gateway.Gateway
	currency   string
	log        *logger.Logger
}

func NewService(businesses businessReader, gw gateway.Gateway, currency string, log *logger.Logger) *Service {
	return &Service{businesses: businesses, gateway: gw, currency: currency, log: log}
}

// Authorize reserves the business price on the customer's card.
func (s *Service) Authorize(ctx context.Context, actor middleware.Actor, req AuthorizeRequest) (*gateway.Charge, error) {
	if req.BusinessID <= 0 || req.Token == "" {
		return nil, apperr.Validation("business_id and token are required")
	}

	b, err := s.businesses.GetByID(ctx, req.BusinessID)
	if err != nil {
		if errors.Is(err, business.ErrNotFound) {
			return nil, apperr.NotFound("business not found")
		}
		return nil, apperr.Store(err)
	}
	if !b.Listed() {
		return nil, apperr.NotFound("business not found")
	}

	charge, err := s.gateway.Authorize(ctx, gateway.AuthorizeRequest{
		Amount:   gateway.ToMinorUnits(b.Price),
		Currency: s.currency,
		Token:    req.Token,
		Metadata: map[string]any{
			"business_id": strconv.FormatInt(b.ID, 10),
			"user_email":  actor.Email,
		},
	})
	if err != nil {
		s.log.Warn("payment authorization failed",
			"business_id", b.ID,
			"provider_message", gateway.ProviderMessage(err),
			"error", err,
		)
		details := map[string]any{"provider_message": gateway.ProviderMessage(err)}
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, apperr.PaymentUnavailable("payment provider unavailable", err).WithDetails(details)
		}
		return nil, apperr.Payment("payment could not be authorized", err).WithDetails(details)
	}

	s.log.Info("payment authorized", "business_id", b.ID, "reference", charge.Reference, "amount", charge.Amount)
	return charge, nil
}
