package admin

import "github.com/gin-gonic/gin"

// RegisterRoutes expects admin to already run JWTAuth and AdminOnly.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	// businesses moderation
	admin.GET("/businesses", h.GetBusinesses)
	admin.PATCH("/businesses/:id/approve", h.ApproveBusiness)
	admin.PATCH("/businesses/:id/reject", h.RejectBusiness)

	// statistics
	admin.GET("/stats", h.GetStats)
}
