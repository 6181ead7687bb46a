package admin

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

// GetBusinesses handles GET /api/v1/admin/businesses?status=
func (h *Handler) GetBusinesses(c *gin.Context) {
	status, ok := ParseStatus(c.Query("status"))
	if !ok {
		response.FromError(c, h.log, apperr.Validation("status must be pending, approved or all"))
		return
	}

	list, err := h.service.Businesses(c.Request.Context(), status)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"businesses": list, "total": len(list)})
}

// ApproveBusiness handles PATCH /api/v1/admin/businesses/:id/approve
func (h *Handler) ApproveBusiness(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	b, err := h.service.Approve(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// RejectBusiness handles PATCH /api/v1/admin/businesses/:id/reject
func (h *Handler) RejectBusiness(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	b, err := h.service.Reject(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// GetStats handles GET /api/v1/admin/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
