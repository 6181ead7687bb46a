package orderfeed

import (
	"context"

	"taskhub/internal/events"
)

// Publisher forwards booking events to the owning business's open feeds.
// Owners that are offline simply miss the push; the orders list is the
// source of truth.
type Publisher struct {
	hub *Hub
}

func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) Publish(_ context.Context, evt events.Event) error {
	switch evt.Type {
	case events.BookingCreated, events.BookingCancelled, events.BookingRated:
	default:
		return nil
	}

	payload, ok := evt.Payload.(events.BookingPayload)
	if !ok || payload.OwnerEmail == "" {
		return nil
	}
	p.hub.SendToOwner(payload.OwnerEmail, Message{Type: evt.Type, Payload: payload})
	return nil
}

func (p *Publisher) Close() error {
	p.hub.Close()
	return nil
}
