// Package payment is the capture/refund boundary to the payment provider.
// Callers see only references; the provider SDK stays behind Gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrDeclined    = errors.New("payment declined")
	ErrNotFound    = errors.New("payment not found")
	ErrUnavailable = errors.New("payment provider unavailable")
)

type ChargeStatus string

const (
	StatusAuthorized ChargeStatus = "authorized"
	StatusCaptured   ChargeStatus = "captured"
	StatusFailed     ChargeStatus = "failed"
)

type Charge struct {
	Reference string         `json:"reference"`
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	Status    ChargeStatus   `json:"status"`
	Metadata  map[string]any `json:"-"`
}

// MetadataValue returns the metadata entry for key as a string. Providers
// echo metadata back as JSON, so numbers may come back as float64.
func (c *Charge) MetadataValue(key string) string {
	v, ok := c.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

type AuthorizeRequest struct {
	Amount   int64
	Currency string
	// Token is the card or source token produced by the provider's client SDK.
	Token    string
	Metadata map[string]any
}

type RefundRequest struct {
	Reference string
	// Amount in minor units; zero refunds the full captured amount.
	Amount         int64
	IdempotencyKey string
	Metadata       map[string]any
}

type Refund struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

type Gateway interface {
	// Authorize reserves funds without capturing them.
	Authorize(ctx context.Context, req AuthorizeRequest) (*Charge, error)
	// Lookup reads a charge without changing it.
	Lookup(ctx context.Context, reference string) (*Charge, error)
	// Capture settles an authorized charge. Capturing an already captured
	// charge returns it unchanged.
	Capture(ctx context.Context, reference string) (*Charge, error)
	// Refund returns funds for a charge. Repeating a request with the same
	// IdempotencyKey must not refund twice: it returns the first refund,
	// even when the first call was reported as failed.
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
}

// ProviderError keeps the provider's failure code and message next to one
// of the package sentinels.
type ProviderError struct {
	Op      string
	Code    string
	Message string
	Kind    error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %v: %s (%s)", e.Op, e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// ProviderMessage extracts the provider message from err, if any.
func ProviderMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}

// ToMinorUnits converts a listing price to the provider's integer amount.
func ToMinorUnits(price float64) int64 {
	if price <= 0 {
		return 0
	}
	return int64(price*100 + 0.5)
}
