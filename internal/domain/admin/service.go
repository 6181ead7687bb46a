package admin

import (
	"context"
	"errors"
	"math"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/domain/business"
	"taskhub/internal/events"
	"taskhub/internal/middleware"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
)

const statsMonths = 6

type Service struct {
	businesses BusinessRepository
	stats      StatsReader
	publisher  events.Publisher
	loc        *time.Location
	log        *logger.Logger
	now        func() time.Time
}

func NewService(businesses BusinessRepository, stats StatsReader, publisher events.Publisher, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		businesses: businesses,
		stats:      stats,
		publisher:  publisher,
		loc:        loc,
		log:        log,
		now:        time.Now,
	}
}

// ParseStatus maps the moderation filter to an admin status.
// An empty filter or "all" lists every business.
func ParseStatus(raw string) (domain.AdminStatus, bool) {
	switch raw {
	case "", "all":
		return "", true
	case "pending":
		return domain.AdminNotApproved, true
	case "approved":
		return domain.AdminApproved, true
	}
	return "", false
}

func (s *Service) Businesses(ctx context.Context, status domain.AdminStatus) ([]domain.Business, error) {
	list, err := s.businesses.ListAll(ctx, status)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return list, nil
}

// Approve lists a business. Approving an approved business is a no-op.
func (s *Service) Approve(ctx context.Context, actor middleware.Actor, id int64) (*domain.Business, error) {
	return s.setAdminStatus(ctx, actor, id, domain.AdminApproved)
}

// Reject sends a business back to review and hides it from customers.
func (s *Service) Reject(ctx context.Context, actor middleware.Actor, id int64) (*domain.Business, error) {
	return s.setAdminStatus(ctx, actor, id, domain.AdminNotApproved)
}

func (s *Service) setAdminStatus(ctx context.Context, actor middleware.Actor, id int64, status domain.AdminStatus) (*domain.Business, error) {
	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, business.ErrNotFound) {
			return nil, apperr.NotFound("business not found")
		}
		return nil, apperr.Store(err)
	}
	if b.AdminStatus == status {
		return b, nil
	}

	if err := s.businesses.Update(ctx, id, map[string]any{"admin_status": status}); err != nil {
		return nil, apperr.Store(err)
	}
	b.AdminStatus = status

	s.log.Info("business moderated", "business_id", id, "admin_status", status, "admin_id", actor.UserID)
	if status == domain.AdminApproved {
		events.Emit(ctx, s.publisher, s.log, events.New(events.BusinessApproved, "business:"+itoa(id), events.BusinessPayload{
			BusinessID:  id,
			OwnerEmail:  b.Email,
			AdminStatus: string(status),
		}))
	}
	return b, nil
}

// Stats reports platform totals and per-month activity for the last six
// calendar months in the configured timezone.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.stats.Counts(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	revenue, err := s.stats.Revenue(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}

	now := s.now().In(s.loc)
	start := time.Date(now.Year(), now.Month()-statsMonths+1, 1, 0, 0, 0, 0, s.loc)

	monthly := make([]MonthStat, statsMonths)
	index := make(map[string]int, statsMonths)
	for i := range monthly {
		key := start.AddDate(0, i, 0).Format("2006-01")
		monthly[i].Month = key
		index[key] = i
	}

	// Stored timestamps may carry any offset; widen the query by a day and
	// bucket precisely here.
	bookings, err := s.stats.BookingsSince(ctx, start.Add(-24*time.Hour))
	if err != nil {
		return nil, apperr.Store(err)
	}
	for _, b := range bookings {
		created := b.CreatedAt.In(s.loc)
		if created.Before(start) {
			continue
		}
		i, ok := index[created.Format("2006-01")]
		if !ok {
			continue
		}
		monthly[i].Bookings++
		if b.Status != domain.BookingCancelled && b.Business != nil {
			monthly[i].Revenue += b.Business.Price
		}
	}
	for i := range monthly {
		monthly[i].Revenue = round2(monthly[i].Revenue)
	}

	return &Stats{Counts: *counts, Revenue: round2(revenue), Monthly: monthly}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
