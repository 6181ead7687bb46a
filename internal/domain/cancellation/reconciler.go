package cancellation

import (
	"context"
	"errors"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/domain/booking"
	"taskhub/internal/events"
	"taskhub/internal/payment"
	"taskhub/internal/pkg/logger"
)

// DefaultStaleAfter is how long a refund may sit in processing before the
// reconciler assumes its request died.
const DefaultStaleAfter = 15 * time.Minute

type ReconcileStore interface {
	RefundStore
	ListIssued(ctx context.Context) ([]domain.Refund, error)
	ListUnknown(ctx context.Context) ([]domain.Refund, error)
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type Report struct {
	Released int `json:"released"`
	Resolved int `json:"resolved"`
	Checked  int `json:"checked"`
	Settled  int `json:"settled"`
	Failed   int `json:"failed"`
}

// Reconciler finishes cancellations whose refund went through but whose
// booking was never marked cancelled, and asks the provider about refunds
// whose outcome was lost.
type Reconciler struct {
	bookings   BookingStore
	refunds    ReconcileStore
	gateway    payment.Gateway
	publisher  events.Publisher
	log        *logger.Logger
	staleAfter time.Duration
	now        func() time.Time
}

func NewReconciler(bookings BookingStore, refunds ReconcileStore, gateway payment.Gateway, publisher events.Publisher, log *logger.Logger) *Reconciler {
	return &Reconciler{
		bookings:   bookings,
		refunds:    refunds,
		gateway:    gateway,
		publisher:  publisher,
		log:        log,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
}

func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var rep Report

	released, err := r.refunds.ReleaseStale(ctx, r.now().Add(-r.staleAfter))
	if err != nil {
		return rep, err
	}
	rep.Released = int(released)

	unknown, err := r.refunds.ListUnknown(ctx)
	if err != nil {
		return rep, err
	}
	for i := range unknown {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if r.resolve(ctx, &unknown[i]) {
			rep.Resolved++
		} else {
			rep.Failed++
		}
	}

	issued, err := r.refunds.ListIssued(ctx)
	if err != nil {
		return rep, err
	}

	for i := range issued {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Checked++
		if r.settle(ctx, &issued[i]) {
			rep.Settled++
		} else {
			rep.Failed++
		}
	}

	r.log.Info("refund reconciliation finished",
		"released", rep.Released,
		"resolved", rep.Resolved,
		"checked", rep.Checked,
		"settled", rep.Settled,
		"failed", rep.Failed,
	)
	return rep, nil
}

// resolve repeats the refund call of an unknown record under its original
// idempotency key. The gateway returns the earlier refund if the provider
// made one, otherwise the refund is made now. Either way the record ends up
// issued and is settled in the same run.
func (r *Reconciler) resolve(ctx context.Context, rec *domain.Refund) bool {
	log := r.log.With("booking_id", rec.BookingID, "refund_id", rec.ID, "idempotency_key", rec.IdempotencyKey)

	won, err := r.refunds.Claim(ctx, rec.ID)
	if err != nil || !won {
		log.Warn("refund not claimed for reconciliation", "error", err)
		return false
	}

	refund, err := r.gateway.Refund(ctx, payment.RefundRequest{
		Reference:      rec.CaptureID,
		IdempotencyKey: rec.IdempotencyKey,
		Metadata:       map[string]any{"booking_id": rec.BookingID, "reason": "customer_cancellation"},
	})
	if err != nil {
		mark := r.refunds.MarkUnknown
		if !errors.Is(err, payment.ErrUnavailable) {
			mark = r.refunds.MarkFailed
		}
		if markErr := mark(context.WithoutCancel(ctx), rec.ID, err.Error()); markErr != nil {
			log.Error("refund left in processing", "error", markErr)
		}
		log.Warn("refund outcome still unresolved", "provider_message", payment.ProviderMessage(err), "error", err)
		return false
	}

	if err := r.refunds.MarkIssued(ctx, rec.ID, refund.ID); err != nil {
		log.Error("resolved refund not recorded", "provider_refund_id", refund.ID, "error", err)
		return false
	}
	log.Info("refund outcome resolved", "provider_refund_id", refund.ID)
	return true
}

func (r *Reconciler) settle(ctx context.Context, rec *domain.Refund) bool {
	log := r.log.With("booking_id", rec.BookingID, "refund_id", rec.ID, "provider_refund_id", rec.ProviderRefundID)

	won, err := r.refunds.Claim(ctx, rec.ID)
	if err != nil || !won {
		log.Warn("refund not claimed for reconciliation", "error", err)
		return false
	}

	b, err := r.bookings.MarkCancelled(ctx, rec.BookingID)
	if errors.Is(err, booking.ErrInvalidTransition) {
		b, err = r.alreadyCancelled(ctx, rec.BookingID)
	}
	if err != nil {
		log.Error("booking still not cancelled", "error", err)
		if restoreErr := r.refunds.MarkIssued(ctx, rec.ID, rec.ProviderRefundID); restoreErr != nil {
			log.Error("refund left in processing", "error", restoreErr)
		}
		return false
	}

	if err := r.refunds.MarkSettled(ctx, rec.ID); err != nil {
		log.Error("refund not marked settled", "error", err)
		return false
	}

	events.Emit(ctx, r.publisher, r.log, events.New(events.BookingCancelled, refundKey(b.ID), bookingPayload(b)))
	log.Info("refund reconciled")
	return true
}

// alreadyCancelled accepts a booking some other path already cancelled.
// A completed booking with an issued refund needs a person to look at it.
func (r *Reconciler) alreadyCancelled(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := r.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingCancelled {
		return nil, booking.ErrInvalidTransition
	}
	return b, nil
}

// Loop runs the reconciler every interval until ctx is done.
func (r *Reconciler) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("refund reconciliation failed", "error", err)
			}
		}
	}
}
