package booking

import (
	"context"

	"taskhub/internal/domain"
)

// DraftChecker holds the advisory lookups the Validator runs before an
// insert. The unique indexes still decide.
type DraftChecker interface {
	GetBusiness(ctx context.Context, id int64) (*domain.Business, error)
	SlotTaken(ctx context.Context, businessID int64, date, label string) (bool, error)
	CaptureInUse(ctx context.Context, captureID string) (bool, error)
}

// Store is the booking persistence the Service works against.
type Store interface {
	DraftChecker
	Create(ctx context.Context, d Draft) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	MarkCompleted(ctx context.Context, id int64) (*domain.Booking, error)
	SetRating(ctx context.Context, id int64, rating int, review string) (*domain.Booking, error)
	ListByUser(ctx context.Context, email string, tab Tab) ([]domain.Booking, error)
	ListByBusiness(ctx context.Context, businessID int64, tab Tab) ([]domain.Booking, error)
	ListByOwnerEmail(ctx context.Context, email string, tab Tab) ([]domain.Booking, error)
}
