// Package review exposes customer reviews left on completed bookings.
package review

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"taskhub/internal/domain"
	"taskhub/internal/pkg/apperr"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	BusinessLimit = 3
	FeaturedLimit = 5
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type reviewRow struct {
	BookingID    int64
	BusinessID   int64
	BusinessName string
	UserName     string
	UserEmail    string
	Rating       int
	Review       string
	Date         string
}

func (r *Repository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookings AS b").
		Select(`b.id AS booking_id, b.business_id, bz.name AS business_name,
			COALESCE(u.name, '') AS user_name, b.user_email, b.rating, b.review, b.date`).
		Joins("JOIN businesses AS bz ON bz.id = b.business_id").
		Joins("LEFT JOIN users AS u ON u.email = b.user_email").
		Where("b.rating > 0 AND b.review <> ''").
		Order("b.rating DESC, b.updated_at DESC, b.id DESC")
}

// ForBusiness returns the best reviews of one business.
func (r *Repository) ForBusiness(ctx context.Context, businessID int64, limit int) ([]domain.Review, error) {
	var rows []reviewRow
	err := r.query(ctx).Where("b.business_id = ?", businessID).Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toReviews(rows), nil
}

// Featured returns the best reviews across listed businesses.
func (r *Repository) Featured(ctx context.Context, limit int) ([]domain.Review, error) {
	var rows []reviewRow
	err := r.query(ctx).
		Where("bz.admin_status = ? AND bz.business_status = ?", domain.AdminApproved, domain.BusinessActive).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toReviews(rows), nil
}

func toReviews(rows []reviewRow) []domain.Review {
	out := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Review{
			BookingID:    row.BookingID,
			BusinessID:   row.BusinessID,
			BusinessName: row.BusinessName,
			CustomerName: displayName(row.UserName, row.UserEmail),
			Rating:       row.Rating,
			Review:       row.Review,
			Date:         row.Date,
		})
	}
	return out
}

// displayName falls back to the mailbox part of the email for guests.
func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

type Handler struct {
	repo *Repository
	log  *logger.Logger
}

func NewHandler(repo *Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

// GetBusinessReviews handles GET /api/v1/businesses/:id/reviews
func (h *Handler) GetBusinessReviews(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return
	}

	list, err := h.repo.ForBusiness(c.Request.Context(), id, BusinessLimit)
	if err != nil {
		response.FromError(c, h.log, apperr.Store(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reviews": list})
}

// GetFeatured handles GET /api/v1/reviews
func (h *Handler) GetFeatured(c *gin.Context) {
	list, err := h.repo.Featured(c.Request.Context(), FeaturedLimit)
	if err != nil {
		response.FromError(c, h.log, apperr.Store(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reviews": list})
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reviews", h.GetFeatured)
	rg.GET("/businesses/:id/reviews", h.GetBusinessReviews)
}
