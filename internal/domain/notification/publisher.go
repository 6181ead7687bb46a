package notification

import (
	"context"
	"errors"
	"fmt"

	"taskhub/internal/domain"
	"taskhub/internal/events"
)

// Publisher turns domain events into inbox entries. It sits in the same
// fanout as the broker, so a failed insert is only logged by the emitter.
type Publisher struct {
	service *Service
}

func NewPublisher(service *Service) *Publisher {
	return &Publisher{service: service}
}

func (p *Publisher) Publish(ctx context.Context, evt events.Event) error {
	switch payload := evt.Payload.(type) {
	case events.BookingPayload:
		return p.booking(ctx, evt.Type, payload)
	case events.BusinessPayload:
		if evt.Type != events.BusinessApproved {
			return nil
		}
		return p.service.Notify(ctx, payload.OwnerEmail, domain.NotifBusinessApproved,
			"Business approved",
			"Your business is now visible to customers.",
			map[string]any{"business_id": payload.BusinessID})
	}
	return nil
}

func (p *Publisher) booking(ctx context.Context, eventType string, b events.BookingPayload) error {
	data := map[string]any{"booking_id": b.BookingID, "business_id": b.BusinessID}
	when := fmt.Sprintf("%s on %s", b.Time, b.Date)

	switch eventType {
	case events.BookingCreated:
		return p.service.Notify(ctx, b.OwnerEmail, domain.NotifBookingCreated,
			"New booking", fmt.Sprintf("%s booked %s.", b.UserEmail, when), data)
	case events.BookingCompleted:
		return p.service.Notify(ctx, b.UserEmail, domain.NotifBookingCompleted,
			"Booking completed", fmt.Sprintf("Your booking for %s is complete. You can rate it now.", when), data)
	case events.BookingRated:
		data["rating"] = b.Rating
		return p.service.Notify(ctx, b.OwnerEmail, domain.NotifNewRating,
			"New rating", fmt.Sprintf("A customer rated their booking %d out of 5.", b.Rating), data)
	case events.BookingCancelled:
		msg := fmt.Sprintf("The booking for %s was cancelled.", when)
		return errors.Join(
			p.service.Notify(ctx, b.UserEmail, domain.NotifBookingCancelled, "Booking cancelled", msg+" Your refund is on its way.", data),
			p.service.Notify(ctx, b.OwnerEmail, domain.NotifBookingCancelled, "Booking cancelled", msg, data),
		)
	}
	return nil
}

func (p *Publisher) Close() error { return nil }
