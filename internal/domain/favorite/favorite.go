// Package favorite lets signed-in users keep a list of saved businesses.
package favorite

import (
	"context"
	"errors"

	"taskhub/internal/database"
	"taskhub/internal/domain"
	"taskhub/internal/domain/business"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"

	"gorm.io/gorm"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

var (
	ErrAlreadySaved = errors.New("business already in favorites")
	ErrNotFound     = errors.New("favorite not found")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Add(ctx context.Context, userID, businessID int64) (*domain.Favorite, error) {
	f := &domain.Favorite{UserID: userID, BusinessID: businessID}
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadySaved
		}
		return nil, err
	}
	return f, nil
}

func (r *Repository) Remove(ctx context.Context, userID, businessID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns one page of saved businesses, newest first, and the
// total count for pagination.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Favorite, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Favorite{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out := make([]domain.Favorite, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Business").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, total, err
}

func (r *Repository) Exists(ctx context.Context, userID, businessID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Favorite{}).
		Where("user_id = ? AND business_id = ?", userID, businessID).
		Count(&count).Error
	return count > 0, err
}

type BusinessLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
}

type Page struct {
	Favorites []domain.Favorite `json:"favorites"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	PerPage   int               `json:"per_page"`
}

type Service struct {
	repo       *Repository
	businesses BusinessLookup
	log        *logger.Logger
}

func NewService(repo *Repository, businesses BusinessLookup, log *logger.Logger) *Service {
	return &Service{repo: repo, businesses: businesses, log: log}
}

// Add saves a listed business. Unlisted businesses look missing, the same
// as on the public details page.
func (s *Service) Add(ctx context.Context, userID, businessID int64) (*domain.Favorite, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, business.ErrNotFound) {
			return nil, apperr.NotFound("business not found")
		}
		return nil, apperr.Store(err)
	}
	if !b.Listed() {
		return nil, apperr.NotFound("business not found")
	}

	f, err := s.repo.Add(ctx, userID, businessID)
	if err != nil {
		if errors.Is(err, ErrAlreadySaved) {
			return nil, apperr.Conflict("business already in favorites")
		}
		return nil, apperr.Store(err)
	}
	f.Business = b
	return f, nil
}

func (s *Service) Remove(ctx context.Context, userID, businessID int64) error {
	if err := s.repo.Remove(ctx, userID, businessID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("business is not in favorites")
		}
		return apperr.Store(err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID int64, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}

	list, total, err := s.repo.ListByUser(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return &Page{Favorites: list, Total: total, Page: page, PerPage: perPage}, nil
}

func (s *Service) Check(ctx context.Context, userID, businessID int64) (bool, error) {
	ok, err := s.repo.Exists(ctx, userID, businessID)
	if err != nil {
		return false, apperr.Store(err)
	}
	return ok, nil
}
