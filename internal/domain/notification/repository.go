package notification

import (
	"context"
	"errors"
	"time"

	"taskhub/internal/domain"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("notification not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *Repository) ListByRecipient(ctx context.Context, email string, limit, offset int) ([]domain.Notification, error) {
	out := make([]domain.Notification, 0)
	err := r.db.WithContext(ctx).
		Where("recipient_email = ?", email).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *Repository) CountUnread(ctx context.Context, email string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_email = ? AND is_read = ?", email, false).
		Count(&n).Error
	return n, err
}

func (r *Repository) MarkAsRead(ctx context.Context, id int64, email string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND recipient_email = ?", id, email).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) MarkAllAsRead(ctx context.Context, email string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("recipient_email = ? AND is_read = ?", email, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id int64, email string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND recipient_email = ?", id, email).
		Delete(&domain.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReadBefore drops read notifications created before cutoff.
func (r *Repository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&domain.Notification{})
	return res.RowsAffected, res.Error
}
