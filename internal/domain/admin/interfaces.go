package admin

import (
	"context"
	"time"

	"taskhub/internal/domain"
)

type BusinessRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	ListAll(ctx context.Context, status domain.AdminStatus) ([]domain.Business, error)
}

type StatsReader interface {
	Counts(ctx context.Context) (*Counts, error)
	Revenue(ctx context.Context) (float64, error)
	BookingsSince(ctx context.Context, since time.Time) ([]domain.Booking, error)
}
