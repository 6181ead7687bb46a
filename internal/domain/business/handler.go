package business

import (
	"net/http"
	"strconv"

	"taskhub/internal/middleware"
	"taskhub/internal/pkg/apperr"
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

// CreateBusiness handles POST /api/v1/businesses
func (h *Handler) CreateBusiness(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	b, err := h.service.Create(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

// GetBusiness handles GET /api/v1/businesses/:id
func (h *Handler) GetBusiness(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	b, err := h.service.Details(c.Request.Context(), middleware.OptionalActor(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// GetTop handles GET /api/v1/businesses/top
func (h *Handler) GetTop(c *gin.Context) {
	list, err := h.service.Top(c.Request.Context())
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"businesses": list})
}

// GetByCategory handles GET /api/v1/businesses?category_id=
func (h *Handler) GetByCategory(c *gin.Context) {
	categoryID, err := strconv.ParseInt(c.Query("category_id"), 10, 64)
	if err != nil || categoryID <= 0 {
		response.FromError(c, h.log, apperr.Validation("category_id is required"))
		return
	}

	listing, err := h.service.ByCategory(c.Request.Context(), categoryID)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// GetMine handles GET /api/v1/businesses/mine
func (h *Handler) GetMine(c *gin.Context) {
	list, err := h.service.Mine(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"businesses": list})
}

// UpdateBusiness handles PATCH /api/v1/businesses/:id
func (h *Handler) UpdateBusiness(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	b, err := h.service.Update(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// SetStatus handles PATCH /api/v1/businesses/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	b, err := h.service.SetStatus(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}
