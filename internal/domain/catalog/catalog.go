// Package catalog serves the service categories businesses are listed under.
package catalog

import (
	"context"
	"errors"
	"net/http"

	"taskhub/internal/domain"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0)
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	var cat domain.Category
	err := r.db.WithContext(ctx).First(&cat, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

type Handler struct {
	repo *Repository
	log  *logger.Logger
}

func NewHandler(repo *Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// GetCategories handles GET /api/v1/categories
func (h *Handler) GetCategories(c *gin.Context) {
	cats, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.FromError(c, h.log, apperr.Store(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"categories": cats})
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/categories", h.GetCategories)
}
