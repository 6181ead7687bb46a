package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/events"
	"taskhub/internal/middleware"
	"taskhub/internal/payment"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("taskhub/booking")

const maxReviewLength = 2000

type Service struct {
	repo      Store
	validator *Validator
	gateway   payment.Gateway
	publisher events.Publisher
	log       *logger.Logger
}

func NewService(repo Store, gateway payment.Gateway, publisher events.Publisher, loc *time.Location, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: NewValidator(repo, loc, log),
		gateway:   gateway,
		publisher: publisher,
		log:       log,
	}
}

// Create validates the request, checks the charge against the listing,
// captures it and stores the booking. A capture that ends up without a
// stored booking is refunded unless another booking holds it.
func (s *Service) Create(ctx context.Context, actor middleware.Actor, req CreateRequest) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.create")
	defer span.End()

	draft, biz, err := s.validator.Validate(ctx, req)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(
		attribute.Int64("business.id", draft.BusinessID),
		attribute.String("booking.date", draft.Date),
		attribute.String("booking.time", draft.Time),
	)

	if actor.Role != string(domain.RoleAdmin) && !strings.EqualFold(actor.Email, draft.UserEmail) {
		return nil, spanError(span, apperr.Forbidden("you can only book for your own account"))
	}

	if err := s.verifyCharge(ctx, draft, biz); err != nil {
		return nil, spanError(span, err)
	}

	if _, err := s.gateway.Capture(ctx, draft.CaptureID); err != nil {
		s.log.Warn("payment capture failed",
			"capture_id", draft.CaptureID,
			"business_id", draft.BusinessID,
			"provider_message", payment.ProviderMessage(err),
			"error", err,
		)
		return nil, spanError(span, paymentError("payment could not be captured", err))
	}

	b, err := s.repo.Create(ctx, draft)
	if err != nil {
		if errors.Is(err, ErrCaptureInUse) {
			s.log.Warn("capture already held by another booking", "capture_id", draft.CaptureID, "business_id", draft.BusinessID)
			return nil, spanError(span, apperr.Conflict(ErrCaptureInUse.Error()))
		}
		s.compensate(ctx, draft, err)
		switch {
		case errors.Is(err, ErrSlotTaken):
			return nil, spanError(span, apperr.SlotConflict(ErrSlotTaken.Error()))
		case errors.Is(err, ErrBusinessNotFound):
			return nil, spanError(span, apperr.NotFound("business not found"))
		}
		return nil, spanError(span, apperr.Store(err))
	}

	events.Emit(ctx, s.publisher, s.log, events.New(events.BookingCreated, bookingKey(b.ID), bookingPayload(b, biz.Email)))
	return b, nil
}

// verifyCharge ties the capture reference to the business being booked.
// The charge must have been authorized for this business and cover its
// current price.
func (s *Service) verifyCharge(ctx context.Context, draft Draft, biz *domain.Business) error {
	ch, err := s.gateway.Lookup(ctx, draft.CaptureID)
	if err != nil {
		s.log.Warn("payment lookup failed",
			"capture_id", draft.CaptureID,
			"business_id", draft.BusinessID,
			"provider_message", payment.ProviderMessage(err),
			"error", err,
		)
		return paymentError("payment could not be verified", err)
	}

	price := payment.ToMinorUnits(biz.Price)
	if got := ch.MetadataValue("business_id"); got != strconv.FormatInt(biz.ID, 10) {
		s.log.Warn("payment authorized for another business", "capture_id", draft.CaptureID, "business_id", biz.ID, "charge_business_id", got)
		return apperr.Payment(ErrChargeMismatch.Error(), ErrChargeMismatch).
			WithDetails(map[string]any{"reason": "business"})
	}
	if ch.Amount < price {
		s.log.Warn("payment below listing price", "capture_id", draft.CaptureID, "business_id", biz.ID, "amount", ch.Amount, "price", price)
		return apperr.Payment(ErrChargeMismatch.Error(), ErrChargeMismatch).
			WithDetails(map[string]any{"reason": "amount", "amount": ch.Amount, "price": price})
	}
	return nil
}

// compensate refunds a capture whose booking was not stored. The key is
// derived from the capture so a retried compensation cannot refund twice.
func (s *Service) compensate(ctx context.Context, draft Draft, cause error) {
	ctx = context.WithoutCancel(ctx)
	key := uuid.NewSHA1(uuid.NameSpaceURL, []byte("taskhub:compensate:"+draft.CaptureID)).String()

	refund, err := s.gateway.Refund(ctx, payment.RefundRequest{
		Reference:      draft.CaptureID,
		IdempotencyKey: key,
		Metadata:       map[string]any{"reason": "booking_not_stored", "business_id": draft.BusinessID},
	})
	if err != nil {
		s.log.Error("compensating refund failed",
			"capture_id", draft.CaptureID,
			"idempotency_key", key,
			"business_id", draft.BusinessID,
			"date", draft.Date,
			"time", draft.Time,
			"cause", cause,
			"error", err,
		)
		return
	}
	s.log.Info("captured payment refunded after failed insert",
		"capture_id", draft.CaptureID,
		"refund_id", refund.ID,
		"cause", cause,
	)
}

func (s *Service) Get(ctx context.Context, actor middleware.Actor, id int64) (*domain.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, b) {
		return nil, apperr.Forbidden("you do not have access to this booking")
	}
	return b, nil
}

// Complete lets the business owner or an admin close a booking.
func (s *Service) Complete(ctx context.Context, actor middleware.Actor, id int64) (*domain.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.complete", trace.WithAttributes(attribute.Int64("booking.id", id)))
	defer span.End()

	b, err := s.load(ctx, id)
	if err != nil {
		return nil, spanError(span, err)
	}
	if !isAdmin(actor) && !ownsBusiness(actor, b) {
		return nil, spanError(span, apperr.Forbidden("only the business owner can complete this booking"))
	}

	updated, err := s.repo.MarkCompleted(ctx, id)
	if err != nil {
		return nil, spanError(span, s.storeError(err))
	}

	events.Emit(ctx, s.publisher, s.log, events.New(events.BookingCompleted, bookingKey(id), bookingPayload(updated, ownerEmail(updated))))
	return updated, nil
}

// Rate records the customer's rating of a completed booking.
func (s *Service) Rate(ctx context.Context, actor middleware.Actor, id int64, req RateRequest) (*domain.Booking, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(actor.Email, b.UserEmail) {
		return nil, apperr.Forbidden("only the customer can rate this booking")
	}
	if req.Rating == nil {
		return nil, apperr.Validation("rating is required")
	}
	review := strings.TrimSpace(req.Review)
	if len(review) > maxReviewLength {
		return nil, apperr.Validation("review is too long")
	}

	updated, err := s.repo.SetRating(ctx, id, *req.Rating, review)
	if err != nil {
		return nil, s.storeError(err)
	}

	events.Emit(ctx, s.publisher, s.log, events.New(events.BookingRated, bookingKey(id), bookingPayload(updated, ownerEmail(updated))))
	return updated, nil
}

func (s *Service) ListMine(ctx context.Context, actor middleware.Actor, tab Tab) ([]domain.Booking, error) {
	out, err := s.repo.ListByUser(ctx, strings.ToLower(actor.Email), tab)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

func (s *Service) ListForBusiness(ctx context.Context, actor middleware.Actor, businessID int64, tab Tab) ([]domain.Booking, error) {
	biz, err := s.repo.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, s.storeError(err)
	}
	if !isAdmin(actor) && !strings.EqualFold(biz.Email, actor.Email) {
		return nil, apperr.Forbidden("you do not own this business")
	}

	out, err := s.repo.ListByBusiness(ctx, businessID, tab)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

// ListOrders returns the bookings across every business the actor owns.
func (s *Service) ListOrders(ctx context.Context, actor middleware.Actor, tab Tab) ([]domain.Booking, error) {
	out, err := s.repo.ListByOwnerEmail(ctx, strings.ToLower(actor.Email), tab)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err)
	}
	return b, nil
}

func (s *Service) storeError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound("booking not found")
	case errors.Is(err, ErrBusinessNotFound):
		return apperr.NotFound("business not found")
	case errors.Is(err, ErrInvalidRating):
		return apperr.Validation(err.Error())
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotRateable),
		errors.Is(err, ErrAlreadyRated):
		return apperr.Conflict(err.Error())
	}
	return apperr.Store(err)
}

func paymentError(msg string, err error) *apperr.AppError {
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

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isAdmin(a middleware.Actor) bool {
	return a.Role == string(domain.RoleAdmin)
}

func ownsBusiness(a middleware.Actor, b *domain.Booking) bool {
	return b.Business != nil && a.Email != "" && strings.EqualFold(b.Business.Email, a.Email)
}

func canRead(a middleware.Actor, b *domain.Booking) bool {
	return isAdmin(a) || strings.EqualFold(a.Email, b.UserEmail) || ownsBusiness(a, b)
}

func ownerEmail(b *domain.Booking) string {
	if b.Business == nil {
		return ""
	}
	return b.Business.Email
}

func bookingKey(id int64) string {
	return "booking:" + strconv.FormatInt(id, 10)
}

func bookingPayload(b *domain.Booking, owner string) events.BookingPayload {
	return events.BookingPayload{
		BookingID:  b.ID,
		BusinessID: b.BusinessID,
		OwnerEmail: owner,
		UserEmail:  b.UserEmail,
		Date:       b.Date,
		Time:       b.Time,
		Status:     string(b.Status),
		Rating:     b.Rating,
	}
}
