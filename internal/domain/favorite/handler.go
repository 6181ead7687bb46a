package favorite

import (
	"net/http"
	"strconv"

	"taskhub/internal/middleware"
	"taskhub/internal/pkg/logger"
	"taskhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// GetFavorites handles GET /api/v1/favorites?page=&per_page=
func (h *Handler) GetFavorites(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))

	res, err := h.service.List(c.Request.Context(), middleware.ActorFrom(c).UserID, page, perPage)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// AddFavorite handles POST /api/v1/favorites/:id
func (h *Handler) AddFavorite(c *gin.Context) {
	id, ok := businessID(c)
	if !ok {
		return
	}

	f, err := h.service.Add(c.Request.Context(), middleware.ActorFrom(c).UserID, id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, f)
}

// RemoveFavorite handles DELETE /api/v1/favorites/:id
func (h *Handler) RemoveFavorite(c *gin.Context) {
	id, ok := businessID(c)
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), middleware.ActorFrom(c).UserID, id); err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "removed"})
}

// CheckFavorite handles GET /api/v1/favorites/:id/check
func (h *Handler) CheckFavorite(c *gin.Context) {
	id, ok := businessID(c)
	if !ok {
		return
	}

	saved, err := h.service.Check(c.Request.Context(), middleware.ActorFrom(c).UserID, id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"business_id": id, "is_favorite": saved})
}

func businessID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid business ID")
		return 0, false
	}
	return id, true
}
