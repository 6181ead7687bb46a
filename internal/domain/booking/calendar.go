package booking

import (
	"context"
	"errors"
	"slices"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/timeslot"
)

type SlotReader interface {
	GetBusiness(ctx context.Context, id int64) (*domain.Business, error)
	FindOccupiedSlots(ctx context.Context, businessID int64, date string) ([]string, error)
}

// Calendar answers which slots of a business are taken on a given day.
type Calendar struct {
	store SlotReader
	loc   *time.Location
}

func NewCalendar(store SlotReader, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{store: store, loc: loc}
}

// Occupied lists the labels held by non-cancelled bookings in slot order.
func (c *Calendar) Occupied(ctx context.Context, businessID int64, rawDate string) (*Occupancy, error) {
	date, err := timeslot.NormalizeDate(rawDate, c.loc)
	if err != nil {
		return nil, apperr.Validation("invalid date, expected YYYY-MM-DD")
	}

	if _, err := c.store.GetBusiness(ctx, businessID); err != nil {
		if errors.Is(err, ErrBusinessNotFound) {
			return nil, apperr.NotFound("business not found")
		}
		return nil, apperr.Store(err)
	}

	times, err := c.store.FindOccupiedSlots(ctx, businessID, date)
	if err != nil {
		return nil, apperr.Store(err)
	}

	out := make([]string, 0, len(times))
	out = append(out, times...)
	slices.SortStableFunc(out, func(a, b string) int {
		return slotOrder(a) - slotOrder(b)
	})

	return &Occupancy{BusinessID: businessID, Date: date, Times: out}, nil
}

// Availability lays the occupied labels over the full slot enumeration.
func (c *Calendar) Availability(ctx context.Context, businessID int64, rawDate string) (*Availability, error) {
	occ, err := c.Occupied(ctx, businessID, rawDate)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(occ.Times))
	for _, t := range occ.Times {
		taken[t] = true
	}

	labels := timeslot.Slots()
	slots := make([]Slot, 0, len(labels))
	for _, label := range labels {
		slots = append(slots, Slot{Time: label, Available: !taken[label]})
	}
	return &Availability{BusinessID: businessID, Date: occ.Date, Slots: slots}, nil
}

// slotOrder sorts labels outside the enumeration after every offered slot.
func slotOrder(label string) int {
	if i := timeslot.Index(label); i >= 0 {
		return i
	}
	return len(timeslot.Slots())
}
