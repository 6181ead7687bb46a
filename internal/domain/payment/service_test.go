package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"taskhub/internal/domain"
	"taskhub/internal/domain/business"
	"taskhub/internal/middleware"
	gateway "taskhub/internal/payment"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
)

type mockBusinessReader struct {
	businesses map[int64]*domain.Business
}

func (m *mockBusinessReader) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	b, ok := m.businesses[id]
	if !ok {
		return nil, business.ErrNotFound
	}
	return b, nil
}

type downGateway struct {
	gateway.Gateway
}

func (downGateway) Authorize(ctx context.Context, req gateway.AuthorizeRequest) (*gateway.Charge, error) {
	return nil, &gateway.ProviderError{Op: "authorize", Code: "timeout", Message: "provider timed out", Kind: gateway.ErrUnavailable}
}

var customer = middleware.Actor{UserID: 10, Email: "jane@example.com", Role: "customer"}

func newReader() *mockBusinessReader {
	return &mockBusinessReader{businesses: map[int64]*domain.Business{
		1: {ID: 1, Price: 80.5, AdminStatus: domain.AdminApproved, BusinessStatus: domain.BusinessActive},
		2: {ID: 2, Price: 40, AdminStatus: domain.AdminNotApproved, BusinessStatus: domain.BusinessActive},
	}}
}

func TestAuthorize_ReservesListingPrice(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	svc := NewService(newReader(), gw, "myr", logger.Discard())

	charge, err := svc.Authorize(context.Background(), customer, AuthorizeRequest{BusinessID: 1, Token: "tok_visa"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.Amount != 8050 || charge.Currency != "myr" {
		t.Fatalf("expected 8050 myr, got %d %s", charge.Amount, charge.Currency)
	}
	if charge.Status != gateway.StatusAuthorized {
		t.Fatalf("expected authorized charge, got %s", charge.Status)
	}

	// The reference captures like any booking payment.
	if _, err := gw.Capture(context.Background(), charge.Reference); err != nil {
		t.Fatalf("capture of authorized reference failed: %v", err)
	}
}

func TestAuthorize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		gw     gateway.Gateway
		req    AuthorizeRequest
		status int
	}{
		{"missing token", gateway.NewMemoryGateway(), AuthorizeRequest{BusinessID: 1}, http.StatusBadRequest},
		{"unknown business", gateway.NewMemoryGateway(), AuthorizeRequest{BusinessID: 99, Token: "tok"}, http.StatusNotFound},
		{"unlisted business", gateway.NewMemoryGateway(), AuthorizeRequest{BusinessID: 2, Token: "tok"}, http.StatusNotFound},
		{"declined", gateway.NewMemoryGateway(), AuthorizeRequest{BusinessID: 1, Token: gateway.DeclineToken}, http.StatusPaymentRequired},
		{"provider down", downGateway{}, AuthorizeRequest{BusinessID: 1, Token: "tok"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newReader(), tt.gw, "myr", logger.Discard())
			_, err := svc.Authorize(context.Background(), customer, tt.req)
			var appErr *apperr.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.HTTPStatus != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, appErr.HTTPStatus)
			}
		})
	}
}
