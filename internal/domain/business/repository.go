package business

import (
	"context"
	"errors"
	"math"

	"taskhub/internal/domain"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("business not found")

const TopLimit = 6

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, b *domain.Business) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	var b domain.Business
	err := r.db.WithContext(ctx).Preload("Category").First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&domain.Business{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTop returns the most booked listed businesses.
func (r *Repository) ListTop(ctx context.Context, limit int) ([]domain.Business, error) {
	var out []domain.Business
	err := r.listed(ctx).
		Order("bookings_count DESC, id").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *Repository) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Business, error) {
	var out []domain.Business
	err := r.listed(ctx).
		Where("category_id = ?", categoryID).
		Order("bookings_count DESC, id").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListByOwner(ctx context.Context, email string) ([]domain.Business, error) {
	var out []domain.Business
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("email = ?", email).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListAll(ctx context.Context, status domain.AdminStatus) ([]domain.Business, error) {
	var out []domain.Business
	q := r.db.WithContext(ctx).Preload("Category").Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("admin_status = ?", status)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *Repository) listed(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Where("admin_status = ? AND business_status = ?", domain.AdminApproved, domain.BusinessActive)
}

type ratingRow struct {
	BusinessID int64
	Average    float64
	Total      int64
}

// RatingSummaries derives average ratings from rated bookings. Businesses
// without ratings are absent from the result.
func (r *Repository) RatingSummaries(ctx context.Context, ids []int64) (map[int64]domain.RatingSummary, error) {
	out := make(map[int64]domain.RatingSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []ratingRow
	err := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Select("business_id, AVG(rating) AS average, COUNT(*) AS total").
		Where("rating > 0 AND business_id IN ?", ids).
		Group("business_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.BusinessID] = domain.RatingSummary{
			BusinessID:    row.BusinessID,
			AverageRating: math.Round(row.Average*10) / 10,
			TotalRatings:  row.Total,
		}
	}
	return out, nil
}

// WithRatings attaches rating summaries to businesses, keeping their order.
func (r *Repository) WithRatings(ctx context.Context, list []domain.Business) ([]domain.BusinessWithRating, error) {
	ids := make([]int64, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}
	ratings, err := r.RatingSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.BusinessWithRating, 0, len(list))
	for _, b := range list {
		s := ratings[b.ID]
		out = append(out, domain.BusinessWithRating{Business: b, AverageRating: s.AverageRating, TotalRatings: s.TotalRatings})
	}
	return out, nil
}
