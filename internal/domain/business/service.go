package business

import (
	"context"
	"errors"
	"strings"

	"taskhub/internal/domain"
	"taskhub/internal/domain/catalog"
	"taskhub/internal/middleware"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/sanitizer"
	"taskhub/internal/pkg/validator"
)

type CategoryLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
}

type Service struct {
	repo       *Repository
	categories CategoryLookup
	log        *logger.Logger
}

func NewService(repo *Repository, categories CategoryLookup, log *logger.Logger) *Service {
	return &Service{repo: repo, categories: categories, log: log}
}

// Create lists a new business for the calling tasker. It stays hidden
// until an admin approves it.
func (s *Service) Create(ctx context.Context, actor middleware.Actor, req CreateRequest) (*domain.Business, error) {
	req.Name = strings.TrimSpace(req.Name)
	if fields := validator.Validate(&req); fields != nil {
		return nil, apperr.Validation("invalid business").WithDetails(map[string]any{"fields": fields})
	}

	phone := ""
	if req.Phone != "" {
		if phone = sanitizer.NormalizePhone(req.Phone); phone == "" {
			return nil, apperr.Validation("invalid phone number")
		}
	}

	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return nil, apperr.Validation("unknown category")
		}
		return nil, apperr.Store(err)
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}

	b := &domain.Business{
		Name:           req.Name,
		About:          strings.TrimSpace(req.About),
		Address:        req.Address.String(),
		ContactPerson:  strings.TrimSpace(req.ContactPerson),
		Email:          sanitizer.NormalizeEmail(actor.Email),
		Phone:          phone,
		CategoryID:     req.CategoryID,
		Price:          req.Price,
		Images:         images,
		AdminStatus:    domain.AdminNotApproved,
		BusinessStatus: domain.BusinessActive,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, apperr.Store(err)
	}

	s.log.Info("business created", "business_id", b.ID, "owner", b.Email)
	return b, nil
}

// Details returns a listed business with its rating. Unlisted businesses
// are visible only to their owner and admins.
func (s *Service) Details(ctx context.Context, actor *middleware.Actor, id int64) (*domain.BusinessWithRating, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err)
	}
	if !b.Listed() && !canManage(actor, b) {
		return nil, apperr.NotFound("business not found")
	}

	out, err := s.repo.WithRatings(ctx, []domain.Business{*b})
	if err != nil {
		return nil, apperr.Store(err)
	}
	return &out[0], nil
}

func (s *Service) Top(ctx context.Context) ([]domain.BusinessWithRating, error) {
	list, err := s.repo.ListTop(ctx, TopLimit)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return s.rated(ctx, list)
}

func (s *Service) ByCategory(ctx context.Context, categoryID int64) (*CategoryListing, error) {
	cat, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return nil, apperr.NotFound("category not found")
		}
		return nil, apperr.Store(err)
	}

	list, err := s.repo.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	rated, err := s.rated(ctx, list)
	if err != nil {
		return nil, err
	}
	return &CategoryListing{Category: *cat, Businesses: rated}, nil
}

func (s *Service) Mine(ctx context.Context, actor middleware.Actor) ([]domain.BusinessWithRating, error) {
	list, err := s.repo.ListByOwner(ctx, sanitizer.NormalizeEmail(actor.Email))
	if err != nil {
		return nil, apperr.Store(err)
	}
	return s.rated(ctx, list)
}

// Update edits listing fields. Edited listings go back to admin review.
func (s *Service) Update(ctx context.Context, actor middleware.Actor, id int64, req UpdateRequest) (*domain.Business, error) {
	if req.empty() {
		return nil, apperr.Validation("nothing to update")
	}
	if fields := validator.Validate(&req); fields != nil {
		return nil, apperr.Validation("invalid business").WithDetails(map[string]any{"fields": fields})
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err)
	}
	if !isOwner(actor, b) {
		return nil, apperr.Forbidden("you do not own this business")
	}

	updates := map[string]any{"admin_status": domain.AdminNotApproved}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.About != nil {
		updates["about"] = strings.TrimSpace(*req.About)
	}
	if req.Address != nil {
		updates["address"] = req.Address.String()
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, s.storeError(err)
	}
	return s.repo.GetByID(ctx, id)
}

// SetStatus lets the owner pause or resume a listing.
func (s *Service) SetStatus(ctx context.Context, actor middleware.Actor, id int64, req StatusRequest) (*domain.Business, error) {
	if fields := validator.Validate(&req); fields != nil {
		return nil, apperr.Validation("invalid status").WithDetails(map[string]any{"fields": fields})
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err)
	}
	if !canManage(&actor, b) {
		return nil, apperr.Forbidden("you do not own this business")
	}

	if err := s.repo.Update(ctx, id, map[string]any{"business_status": req.Status}); err != nil {
		return nil, s.storeError(err)
	}
	b.BusinessStatus = req.Status
	return b, nil
}

func (s *Service) rated(ctx context.Context, list []domain.Business) ([]domain.BusinessWithRating, error) {
	out, err := s.repo.WithRatings(ctx, list)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

func (s *Service) storeError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("business not found")
	}
	return apperr.Store(err)
}

func isOwner(actor middleware.Actor, b *domain.Business) bool {
	return strings.EqualFold(actor.Email, b.Email)
}

func canManage(actor *middleware.Actor, b *domain.Business) bool {
	if actor == nil {
		return false
	}
	return actor.Role == string(domain.RoleAdmin) || isOwner(*actor, b)
}
