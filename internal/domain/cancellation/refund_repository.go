package cancellation

import (
	"context"
	"errors"
	"time"

	"taskhub/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RefundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// GetOrCreate returns the refund record of a booking, creating a pending
// one with a fresh idempotency key on first use.
func (r *RefundRepository) GetOrCreate(ctx context.Context, bookingID int64, captureID string) (*domain.Refund, error) {
	rec := domain.Refund{
		BookingID:      bookingID,
		CaptureID:      captureID,
		IdempotencyKey: uuid.NewString(),
		Status:         domain.RefundPending,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "booking_id"}}, DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return nil, err
	}
	return r.GetByBookingID(ctx, bookingID)
}

func (r *RefundRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Refund, error) {
	var rec domain.Refund
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Claim moves the record to processing unless another caller holds it or
// it is already settled. It reports whether this caller won the claim.
func (r *RefundRepository) Claim(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Refund{}).
		Where("id = ? AND status IN ?", id, []domain.RefundStatus{
			domain.RefundPending, domain.RefundFailed, domain.RefundUnknown, domain.RefundIssued,
		}).
		Update("status", domain.RefundProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *RefundRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	return r.set(ctx, id, map[string]any{"status": domain.RefundFailed, "last_error": reason})
}

// MarkUnknown records a provider call whose outcome was lost.
func (r *RefundRepository) MarkUnknown(ctx context.Context, id int64, reason string) error {
	return r.set(ctx, id, map[string]any{"status": domain.RefundUnknown, "last_error": reason})
}

func (r *RefundRepository) MarkIssued(ctx context.Context, id int64, providerRefundID string) error {
	return r.set(ctx, id, map[string]any{
		"status":             domain.RefundIssued,
		"provider_refund_id": providerRefundID,
		"last_error":         "",
	})
}

func (r *RefundRepository) MarkSettled(ctx context.Context, id int64) error {
	return r.set(ctx, id, map[string]any{"status": domain.RefundSettled, "last_error": ""})
}

// ListIssued returns refunds the provider paid out whose booking is not
// cancelled yet.
func (r *RefundRepository) ListIssued(ctx context.Context) ([]domain.Refund, error) {
	return r.listByStatus(ctx, domain.RefundIssued)
}

// ListUnknown returns refunds whose provider outcome was never seen.
func (r *RefundRepository) ListUnknown(ctx context.Context) ([]domain.Refund, error) {
	return r.listByStatus(ctx, domain.RefundUnknown)
}

func (r *RefundRepository) listByStatus(ctx context.Context, status domain.RefundStatus) ([]domain.Refund, error) {
	var out []domain.Refund
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id").
		Find(&out).Error
	return out, err
}

// ReleaseStale returns records stuck in processing since before cutoff to
// the state their provider refund id implies. Without an id the request may
// have died mid-call, so the record goes to unknown.
func (r *RefundRepository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var released int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		issued := tx.Model(&domain.Refund{}).
			Where("status = ? AND updated_at < ? AND provider_refund_id <> ''", domain.RefundProcessing, cutoff).
			Update("status", domain.RefundIssued)
		if issued.Error != nil {
			return issued.Error
		}
		unknown := tx.Model(&domain.Refund{}).
			Where("status = ? AND updated_at < ? AND (provider_refund_id = '' OR provider_refund_id IS NULL)", domain.RefundProcessing, cutoff).
			Updates(map[string]any{"status": domain.RefundUnknown, "last_error": "released after stale claim"})
		if unknown.Error != nil {
			return unknown.Error
		}
		released = issued.RowsAffected + unknown.RowsAffected
		return nil
	})
	return released, err
}

func (r *RefundRepository) set(ctx context.Context, id int64, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Refund{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRefundNotFound
	}
	return nil
}
