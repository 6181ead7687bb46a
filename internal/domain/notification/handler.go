package notification

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

// GetNotifications handles GET /api/v1/notifications?limit=&offset=
func (h *Handler) GetNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	inbox, err := h.service.List(c.Request.Context(), middleware.ActorFrom(c).Email, limit, offset)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, inbox)
}

// GetUnreadCount handles GET /api/v1/notifications/unread-count
func (h *Handler) GetUnreadCount(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), middleware.ActorFrom(c).Email)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread_count": n})
}

// MarkAsRead handles PATCH /api/v1/notifications/:id/read
func (h *Handler) MarkAsRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), middleware.ActorFrom(c).Email, id); err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "read"})
}

// MarkAllAsRead handles POST /api/v1/notifications/read-all
func (h *Handler) MarkAllAsRead(c *gin.Context) {
	n, err := h.service.MarkAllAsRead(c.Request.Context(), middleware.ActorFrom(c).Email)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "all_read", "updated": n})
}

// DeleteNotification handles DELETE /api/v1/notifications/:id
func (h *Handler) DeleteNotification(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.ActorFrom(c).Email, id); err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}
