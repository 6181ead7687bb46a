// Package events publishes domain events after state changes commit.
// Publishing is best effort: a failed publish is logged and never rolls
// back the change that produced it.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"taskhub/internal/pkg/logger"

	"github.com/google/uuid"
)

const (
	BookingCreated   = "booking.created"
	BookingCompleted = "booking.completed"
	BookingRated     = "booking.rated"
	BookingCancelled = "booking.cancelled"

	RefundIssued                 = "refund.issued"
	RefundReconciliationRequired = "refund.reconciliation_required"

	BusinessApproved = "business.approved"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType, key string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

type BookingPayload struct {
	BookingID  int64  `json:"booking_id"`
	BusinessID int64  `json:"business_id"`
	OwnerEmail string `json:"owner_email,omitempty"`
	UserEmail  string `json:"user_email"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status"`
	Rating     int    `json:"rating,omitempty"`
}

type RefundPayload struct {
	BookingID        int64  `json:"booking_id"`
	RefundID         int64  `json:"refund_id"`
	CaptureID        string `json:"capture_id"`
	IdempotencyKey   string `json:"idempotency_key"`
	ProviderRefundID string `json:"provider_refund_id,omitempty"`
	Status           string `json:"status"`
	Error            string `json:"error,omitempty"`
}

type BusinessPayload struct {
	BusinessID  int64  `json:"business_id"`
	OwnerEmail  string `json:"owner_email"`
	AdminStatus string `json:"admin_status"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Emit publishes evt and logs a failure instead of returning it.
func Emit(ctx context.Context, pub Publisher, log *logger.Logger, evt Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil && log != nil {
		log.Warn("event publish failed", "event_type", evt.Type, "event_id", evt.ID, "key", evt.Key, "error", err)
	}
}

// LogPublisher writes events to the application log. It is the default
// driver when no broker is configured.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, evt Event) error {
	p.log.InfoContext(ctx, "event", "event_type", evt.Type, "event_id", evt.ID, "key", evt.Key, "payload", evt.Payload)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Fanout delivers every event to all publishers.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
