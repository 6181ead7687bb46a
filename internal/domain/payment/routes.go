package payment

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/authorize", h.Authorize)
	}
}
