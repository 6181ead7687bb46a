package cancellation

import (
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/pkg/timeslot"
)

const DefaultNotice = 24 * time.Hour

// Policy decides whether a booking may still be cancelled.
type Policy struct {
	Notice   time.Duration
	Location *time.Location
	Now      func() time.Time
}

func NewPolicy(notice time.Duration, loc *time.Location) Policy {
	if notice <= 0 {
		notice = DefaultNotice
	}
	if loc == nil {
		loc = time.UTC
	}
	return Policy{Notice: notice, Location: loc, Now: time.Now}
}

// Deadline is the last moment a cancellation of b is accepted.
func (p Policy) Deadline(b *domain.Booking) (time.Time, error) {
	at, err := timeslot.ScheduledAt(b.Date, b.Time, p.Location)
	if err != nil {
		return time.Time{}, err
	}
	return at.Add(-p.Notice), nil
}

// Check returns ErrLateCancellation once less than Notice remains before
// the booking starts.
func (p Policy) Check(b *domain.Booking) error {
	deadline, err := p.Deadline(b)
	if err != nil {
		return err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if now().After(deadline) {
		return ErrLateCancellation
	}
	return nil
}
