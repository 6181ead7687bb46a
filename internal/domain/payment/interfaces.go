package payment

import (
	"context"

	"taskhub/internal/domain"
)

type businessReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
}
