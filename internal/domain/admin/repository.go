package admin

import (
	"context"
	"time"

	"taskhub/internal/domain"

	"gorm.io/gorm"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Counts(ctx context.Context) (*Counts, error) {
	db := r.db.WithContext(ctx)
	var c Counts

	steps := []struct {
		dst   *int64
		model any
		where []any
	}{
		{&c.Customers, &domain.User{}, []any{"role = ?", domain.RoleCustomer}},
		{&c.Taskers, &domain.User{}, []any{"role = ?", domain.RoleTasker}},
		{&c.Businesses, &domain.Business{}, nil},
		{&c.PendingBusinesses, &domain.Business{}, []any{"admin_status = ?", domain.AdminNotApproved}},
		{&c.Bookings, &domain.Booking{}, nil},
		{&c.CompletedBookings, &domain.Booking{}, []any{"status = ?", domain.BookingCompleted}},
		{&c.CancelledBookings, &domain.Booking{}, []any{"status = ?", domain.BookingCancelled}},
		{&c.IncompletedBookings, &domain.Booking{}, []any{"status = ?", domain.BookingIncompleted}},
	}
	for _, s := range steps {
		q := db.Model(s.model)
		if len(s.where) > 0 {
			q = q.Where(s.where[0], s.where[1:]...)
		}
		if err := q.Count(s.dst).Error; err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// BookingsSince loads bookings created at or after since together with
// their business, whose price is the booking revenue.
func (r *StatsRepository) BookingsSince(ctx context.Context, since time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Business").
		Where("created_at >= ?", since).
		Order("created_at").
		Find(&out).Error
	return out, err
}

// Revenue sums the listing price of every booking that was not cancelled.
func (r *StatsRepository) Revenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Table("bookings").
		Select("COALESCE(SUM(businesses.price), 0)").
		Joins("JOIN businesses ON businesses.id = bookings.business_id").
		Where("bookings.status <> ?", domain.BookingCancelled).
		Scan(&total).Error
	return total, err
}
