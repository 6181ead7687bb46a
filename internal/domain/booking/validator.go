package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/sanitizer"
	"taskhub/internal/pkg/timeslot"
	"taskhub/internal/pkg/validator"
)

// Validator turns a raw create request into a Draft. Checks run in a fixed
// order and the first failure is returned.
type Validator struct {
	store DraftChecker
	loc   *time.Location
	log   *logger.Logger
}

func NewValidator(store DraftChecker, loc *time.Location, log *logger.Logger) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{store: store, loc: loc, log: log}
}

func (v *Validator) Validate(ctx context.Context, req CreateRequest) (Draft, *domain.Business, error) {
	var d Draft

	if !req.complete() {
		return d, nil, apperr.Validation("missing required fields")
	}

	businessID, errB := req.BusinessID.Int64()
	categoryID, errC := req.CategoryID.Int64()
	if errB != nil || errC != nil || businessID <= 0 || categoryID <= 0 {
		return d, nil, apperr.Validation("invalid business or category id")
	}

	email := v.sanitize("user_email", *req.UserEmail)
	email = strings.ToLower(email)
	if !validator.Var(email, "required,email") {
		return d, nil, apperr.Validation("invalid email address")
	}
	if status := v.sanitize("status", *req.Status); domain.BookingStatus(status) != domain.BookingIncompleted {
		return d, nil, apperr.Validation("status must be incompleted")
	}

	date, err := timeslot.NormalizeDate(*req.Date, v.loc)
	if err != nil {
		return d, nil, apperr.Validation("invalid date, expected YYYY-MM-DD")
	}

	label, err := timeslot.CanonicalSlot(*req.Time)
	switch {
	case errors.Is(err, timeslot.ErrNotOffered):
		return d, nil, apperr.Validation("time is not a bookable slot").
			WithDetails(map[string]any{"slots": timeslot.Slots()})
	case err != nil:
		return d, nil, apperr.Validation("invalid time format")
	}

	addr := normalizeAddress(*req.Location)
	if fields := validator.Validate(&addr); fields != nil {
		return d, nil, apperr.Validation("invalid location").WithDetails(map[string]any{"fields": fields})
	}

	biz, err := v.store.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, ErrBusinessNotFound) {
			return d, nil, apperr.NotFound("business not found")
		}
		return d, nil, apperr.Store(err)
	}
	if !biz.Listed() {
		return d, nil, apperr.NotFound("business not found")
	}

	captureID := strings.TrimSpace(*req.CaptureID)
	used, err := v.store.CaptureInUse(ctx, captureID)
	if err != nil {
		return d, nil, apperr.Store(err)
	}
	if used {
		return d, nil, apperr.Conflict(ErrCaptureInUse.Error())
	}

	taken, err := v.store.SlotTaken(ctx, businessID, date, label)
	if err != nil {
		return d, nil, apperr.Store(err)
	}
	if taken {
		return d, nil, apperr.SlotConflict(ErrSlotTaken.Error())
	}

	d = Draft{
		BusinessID: businessID,
		CategoryID: categoryID,
		UserEmail:  email,
		Date:       date,
		Time:       label,
		Location:   addr,
		CaptureID:  captureID,
	}
	return d, biz, nil
}

func (v *Validator) sanitize(field, raw string) string {
	cleaned, changed := sanitizer.Printable(raw)
	if changed && v.log != nil {
		v.log.Warn("sanitized booking input", "field", field, "before", raw, "after", cleaned)
	}
	return cleaned
}

func (r CreateRequest) complete() bool {
	if r.BusinessID == nil || r.CategoryID == nil || r.Location == nil {
		return false
	}
	for _, s := range []*string{r.UserEmail, r.Date, r.Time, r.Status, r.CaptureID} {
		if s == nil || strings.TrimSpace(*s) == "" {
			return false
		}
	}
	return *r.BusinessID != "" && *r.CategoryID != ""
}

func normalizeAddress(a domain.Address) domain.Address {
	return domain.Address{
		Line1:    strings.TrimSpace(a.Line1),
		Line2:    strings.TrimSpace(a.Line2),
		Postcode: strings.TrimSpace(a.Postcode),
		City:     strings.TrimSpace(a.City),
		State:    strings.TrimSpace(a.State),
	}
}
