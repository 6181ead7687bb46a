// Package cancellation cancels bookings and refunds their payment.
//
// The refund and the booking status change cannot share a transaction, so
// a cancellation is a small saga recorded on the refunds table: the
// provider is called first, and a booking that could not be cancelled after
// a successful refund is left for the Reconciler. So is a refund call that
// timed out, since the provider may have paid it.
package cancellation

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"taskhub/internal/domain"
	"taskhub/internal/domain/booking"
	"taskhub/internal/events"
	"taskhub/internal/payment"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("taskhub/cancellation")

type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	MarkCancelled(ctx context.Context, id int64) (*domain.Booking, error)
}

type RefundStore interface {
	GetOrCreate(ctx context.Context, bookingID int64, captureID string) (*domain.Refund, error)
	Claim(ctx context.Context, id int64) (bool, error)
	MarkFailed(ctx context.Context, id int64, reason string) error
	MarkUnknown(ctx context.Context, id int64, reason string) error
	MarkIssued(ctx context.Context, id int64, providerRefundID string) error
	MarkSettled(ctx context.Context, id int64) error
}

type Request struct {
	BookingID  int64
	CaptureID  string
	ActorID    int64
	ActorEmail string
	ActorRole  string
}

type Result struct {
	Message string          `json:"message"`
	Refund  *domain.Refund  `json:"refund"`
	Booking *domain.Booking `json:"booking"`
}

type Engine struct {
	bookings  BookingStore
	refunds   RefundStore
	gateway   payment.Gateway
	publisher events.Publisher
	policy    Policy
	log       *logger.Logger
}

func NewEngine(bookings BookingStore, refunds RefundStore, gateway payment.Gateway, publisher events.Publisher, policy Policy, log *logger.Logger) *Engine {
	return &Engine{
		bookings:  bookings,
		refunds:   refunds,
		gateway:   gateway,
		publisher: publisher,
		policy:    policy,
		log:       log,
	}
}

func (e *Engine) Cancel(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "cancellation.cancel", trace.WithAttributes(attribute.Int64("booking.id", req.BookingID)))
	defer span.End()

	b, err := e.authorize(ctx, req)
	if err != nil {
		return nil, fail(span, err)
	}

	rec, err := e.claim(ctx, b)
	if err != nil {
		return nil, fail(span, err)
	}
	log := e.log.With(
		"booking_id", b.ID,
		"refund_id", rec.ID,
		"capture_id", rec.CaptureID,
		"idempotency_key", rec.IdempotencyKey,
	)

	if rec.ProviderRefundID == "" {
		refund, err := e.gateway.Refund(ctx, payment.RefundRequest{
			Reference:      rec.CaptureID,
			IdempotencyKey: rec.IdempotencyKey,
			Metadata:       map[string]any{"booking_id": b.ID, "reason": "customer_cancellation"},
		})
		if err != nil {
			return nil, fail(span, e.refundFailed(ctx, log, b, rec, err))
		}
		rec.ProviderRefundID = refund.ID
	}

	if err := e.refunds.MarkIssued(ctx, rec.ID, rec.ProviderRefundID); err != nil {
		e.reconciliationRequired(ctx, log, b, rec, err)
		return nil, fail(span, apperr.Store(err))
	}
	rec.Status = domain.RefundIssued
	events.Emit(ctx, e.publisher, e.log, events.New(events.RefundIssued, refundKey(b.ID), refundPayload(b, rec, "")))

	cancelled, err := e.bookings.MarkCancelled(ctx, b.ID)
	if err != nil {
		e.reconciliationRequired(ctx, log, b, rec, err)
		return nil, fail(span, apperr.Store(err))
	}

	if err := e.refunds.MarkSettled(ctx, rec.ID); err != nil {
		// The booking is cancelled; the reconciler settles the record later.
		log.Warn("refund not marked settled", "error", err)
	} else {
		rec.Status = domain.RefundSettled
	}

	events.Emit(ctx, e.publisher, e.log, events.New(events.BookingCancelled, refundKey(b.ID), bookingPayload(cancelled)))
	log.Info("booking cancelled", "provider_refund_id", rec.ProviderRefundID)

	return &Result{
		Message: "booking cancelled and payment refunded",
		Refund:  rec,
		Booking: cancelled,
	}, nil
}

// refundFailed records a failed provider call. A rejection frees the record
// for a retry. An unanswered call leaves it unknown for the Reconciler,
// which repeats it under the same idempotency key.
func (e *Engine) refundFailed(ctx context.Context, log *logger.Logger, b *domain.Booking, rec *domain.Refund, err error) error {
	ctx = context.WithoutCancel(ctx)
	reason := err.Error()

	if !errors.Is(err, payment.ErrUnavailable) {
		if markErr := e.refunds.MarkFailed(ctx, rec.ID, reason); markErr != nil {
			log.Error("refund failure not recorded", "error", markErr)
		}
		log.Warn("refund rejected by provider", "provider_message", payment.ProviderMessage(err), "error", err)
		return refundError(err)
	}

	if markErr := e.refunds.MarkUnknown(ctx, rec.ID, reason); markErr != nil {
		// Left in processing, ReleaseStale moves it to unknown later.
		log.Error("unknown refund outcome not recorded", "error", markErr)
	}
	rec.Status = domain.RefundUnknown
	log.Warn("refund outcome unknown", "error", err)
	events.Emit(ctx, e.publisher, e.log,
		events.New(events.RefundReconciliationRequired, refundKey(b.ID), refundPayload(b, rec, reason)))

	return refundError(err).WithDetails(map[string]any{
		"refund_status":    domain.RefundUnknown,
		"provider_message": payment.ProviderMessage(err),
	})
}

func (e *Engine) authorize(ctx context.Context, req Request) (*domain.Booking, error) {
	b, err := e.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, apperr.NotFound("booking not found")
		}
		return nil, apperr.Store(err)
	}

	captureID := strings.TrimSpace(req.CaptureID)
	if captureID == "" {
		return nil, apperr.Validation("capture_id is required")
	}
	if captureID != b.CaptureID {
		return nil, apperr.Validation("capture_id does not match this booking")
	}

	isCustomer := req.ActorID == b.UserID || (req.ActorEmail != "" && strings.EqualFold(req.ActorEmail, b.UserEmail))
	if !isCustomer && req.ActorRole != string(domain.RoleAdmin) {
		return nil, apperr.Forbidden("only the customer can cancel this booking")
	}

	if b.Status != domain.BookingIncompleted {
		return nil, apperr.Policy("only incompleted bookings can be cancelled")
	}

	if err := e.policy.Check(b); err != nil {
		if errors.Is(err, ErrLateCancellation) {
			deadline, _ := e.policy.Deadline(b)
			return nil, apperr.Policy(ErrLateCancellation.Error()).WithDetails(map[string]any{
				"deadline": deadline,
				"notice":   e.policy.Notice.String(),
			})
		}
		return nil, apperr.Internal(err)
	}
	return b, nil
}

// claim makes this request the only one driving the booking's refund.
func (e *Engine) claim(ctx context.Context, b *domain.Booking) (*domain.Refund, error) {
	rec, err := e.refunds.GetOrCreate(ctx, b.ID, b.CaptureID)
	if err != nil {
		return nil, apperr.Store(err)
	}

	won, err := e.refunds.Claim(ctx, rec.ID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if !won {
		return nil, apperr.Conflict(ErrRefundBusy.Error())
	}
	rec.Status = domain.RefundProcessing
	return rec, nil
}

func (e *Engine) reconciliationRequired(ctx context.Context, log *logger.Logger, b *domain.Booking, rec *domain.Refund, cause error) {
	log.Error("refund issued but booking not cancelled",
		"provider_refund_id", rec.ProviderRefundID,
		"user_email", b.UserEmail,
		"business_id", b.BusinessID,
		"error", cause,
	)
	events.Emit(context.WithoutCancel(ctx), e.publisher, e.log,
		events.New(events.RefundReconciliationRequired, refundKey(b.ID), refundPayload(b, rec, cause.Error())))
}

func refundError(err error) *apperr.AppError {
	const msg = "refund could not be processed"
	var appErr *apperr.AppError
	if errors.Is(err, payment.ErrUnavailable) {
		appErr = apperr.PaymentUnavailable(msg, err)
	} else {
		appErr = apperr.Payment(msg, err)
	}
	if pm := payment.ProviderMessage(err); pm != "" {
		appErr.WithDetails(map[string]any{"provider_message": pm})
	}
	return appErr
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func refundKey(bookingID int64) string {
	return "booking:" + strconv.FormatInt(bookingID, 10)
}

func refundPayload(b *domain.Booking, rec *domain.Refund, errMsg string) events.RefundPayload {
	return events.RefundPayload{
		BookingID:        b.ID,
		RefundID:         rec.ID,
		CaptureID:        rec.CaptureID,
		IdempotencyKey:   rec.IdempotencyKey,
		ProviderRefundID: rec.ProviderRefundID,
		Status:           string(rec.Status),
		Error:            errMsg,
	}
}

func bookingPayload(b *domain.Booking) events.BookingPayload {
	p := events.BookingPayload{
		BookingID:  b.ID,
		BusinessID: b.BusinessID,
		UserEmail:  b.UserEmail,
		Date:       b.Date,
		Time:       b.Time,
		Status:     string(b.Status),
	}
	if b.Business != nil {
		p.OwnerEmail = b.Business.Email
	}
	return p
}
