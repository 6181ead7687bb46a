package payment

import (
	"net/http"

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

// Authorize handles POST /api/v1/payments/authorize
func (h *Handler) Authorize(c *gin.Context) {
	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	charge, err := h.service.Authorize(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"capture_id": charge.Reference,
		"amount":     charge.Amount,
		"currency":   charge.Currency,
		"status":     charge.Status,
	})
}
